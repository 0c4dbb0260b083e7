package main

import (
	"flag"
	"fmt"
	"log"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plink"
)

func main() {
	prefix := flag.String("bfile", "", "Prefix of the .bed/.bim/.fam fileset to process")
	region := flag.String("region", "", "Region to fetch, as chrom:start-end (1-based, inclusive)")
	configPath := flag.String("config", "", "Optional TOML file selecting the index builder and its location")
	flag.Parse()

	if *prefix == "" || *region == "" {
		flag.PrintDefaults()
		log.Fatalln("-bfile and -region are required")
	}

	if strings.HasPrefix(*prefix, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*prefix = filepath.Join(usr.HomeDir, (*prefix)[2:])
	}

	chrom, start, end, err := parseRegion(*region)
	if err != nil {
		log.Fatalln(err)
	}

	var cfg plink.Config
	if *configPath != "" {
		cfg, err = plink.LoadConfig(*configPath)
		if err != nil {
			log.Fatalln(err)
		}
	}
	opts, err := cfg.Options(nil)
	if err != nil {
		log.Fatalln(err)
	}

	b, err := plink.Open(*prefix, opts...)
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()

	genotypes, err := b.Region(chrom, start, end)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Found", len(genotypes), "variants in", *region)
	if len(genotypes) == 0 {
		return
	}

	r2, err := plink.LD(genotypes[0], genotypes, true)
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("variant\tcoded\tmaf\tcalled\tr2")
	for i, g := range genotypes {
		fmt.Printf("%s\t%s\t%.4f\t%d\t%.4f\n", g.Variant, g.CodedAllele(), g.MAF(), g.NonMissing(), r2[i])
	}
}

func parseRegion(region string) (string, uint32, uint32, error) {
	chrom, span, ok := strings.Cut(region, ":")
	if !ok {
		return "", 0, 0, fmt.Errorf("region %q is not chrom:start-end", region)
	}

	from, to, ok := strings.Cut(span, "-")
	if !ok {
		return "", 0, 0, fmt.Errorf("region %q is not chrom:start-end", region)
	}

	start, err := strconv.ParseUint(from, 10, 32)
	if err != nil {
		return "", 0, 0, pfx.Err(err)
	}
	end, err := strconv.ParseUint(to, 10, 32)
	if err != nil {
		return "", 0, 0, pfx.Err(err)
	}

	return chrom, uint32(start), uint32(end), nil
}
