package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plink"
	"go.uber.org/zap"
)

func main() {
	prefix := flag.String("bfile", "", "Prefix of the .bed/.bim/.fam fileset to process")
	configPath := flag.String("config", "", "Optional TOML file selecting the index builder and its location")
	verbose := flag.Bool("verbose", false, "Log index activity")
	flag.Parse()

	if *prefix == "" {
		flag.PrintDefaults()
		log.Fatalln("No fileset given")
	}

	if strings.HasPrefix(*prefix, "~/") {
		usr, err := user.Current()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		*prefix = filepath.Join(usr.HomeDir, (*prefix)[2:])
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		defer logger.Sync()
	}

	var cfg plink.Config
	if *configPath != "" {
		var err error
		cfg, err = plink.LoadConfig(*configPath)
		if err != nil {
			log.Fatalln(err)
		}
	}
	opts, err := cfg.Options(logger)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Indexing", *prefix+".bim")
	idx, err := plink.OpenLocusIndex(context.Background(), *prefix+".bim", opts...)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Index key: %+v\n", idx.Key)
	idx.Close()

	log.Println("Opening fileset:", *prefix)
	b, err := plink.Open(*prefix, opts...)
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()

	log.Printf("%d samples, %d variants, %d bytes per variant\n", b.NSamples, b.NVariants, b.ChunkSize)

	for i, sample := range b.Samples {
		if i > 10 {
			break
		}
		fmt.Println(i, sample.SampleID)
	}

	vr := b.NewVariantReader()
	var missing int
	for i := 1; ; i++ {
		v := vr.Read()
		if v == nil {
			break
		}

		missing += len(v.Genotypes) - v.NonMissing()

		if i > 10 {
			continue
		}

		log.Printf("Variant %d) %s coded=%s MAF=%.4f\n", i, v.Variant, v.CodedAllele(), v.MAF())
	}

	if vr.Error() != nil {
		log.Fatalln("VR error:", vr.Error())
	}

	log.Println("Scanned", vr.VariantsSeen, "variants with", missing, "missing calls")
}
