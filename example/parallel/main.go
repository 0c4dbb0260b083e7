package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plink"
)

func main() {
	prefix := flag.String("bfile", "", "Prefix of the .bed/.bim/.fam fileset to process")
	configPath := flag.String("config", "", "Optional TOML file selecting the index builder and its location")
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

	var cfg plink.Config
	if *configPath != "" {
		var err error
		cfg, err = plink.LoadConfig(*configPath)
		if err != nil {
			log.Fatalln(err)
		}
	}
	opts, err := cfg.Options(nil)
	if err != nil {
		log.Fatalln(err)
	}

	// Build the index once up front so the workers all reuse it.
	b, err := plink.Open(*prefix, opts...)
	if err != nil {
		log.Fatalln(err)
	}
	b.Close()

	// Prep the readers
	entries := make(chan plink.IndexEntry)
	output := make(chan AlleleCounter)
	accumulated := make(chan AlleleCounter)

	go func() {
		accumulator := AlleleCounter{}
		for o := range output {
			accumulator.A += o.A
			accumulator.C += o.C
			accumulator.T += o.T
			accumulator.G += o.G
		}
		accumulated <- accumulator
	}()

	// Prep the Workers:
	log.Println("Launching", runtime.NumCPU(), "workers")
	var wg sync.WaitGroup
	for i := 0; i < runtime.NumCPU(); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			Worker(workerID, *prefix, opts, entries, output)
		}(i)
	}

	bim, err := os.Open(*prefix + ".bim")
	if err != nil {
		log.Fatalln(err)
	}
	defer bim.Close()

	br := plink.NewBIMReader(bim, bim.Name())
	for ov := br.Read(); ov != nil; ov = br.Read() {
		if br.RecordsSeen%1000 == 0 {
			log.Println("Processed", br.RecordsSeen, "variants")
		}

		entries <- plink.IndexEntry{
			Ordinal:     br.RecordsSeen - 1,
			Variant:     ov.Variant,
			CodedAllele: ov.Allele1(),
		}
	}
	close(entries)
	if err := br.Error(); err != nil {
		log.Fatalln(err)
	}

	wg.Wait()
	close(output)

	log.Println("Final accumulated stats")
	log.Printf("%+v\n", <-accumulated)
}

type AlleleCounter struct {
	A, C, T, G float64
}

func (a *AlleleCounter) Add(which string, val float64) error {
	switch which {
	case "A":
		a.A += val
	case "C":
		a.C += val
	case "T":
		a.T += val
	case "G":
		a.G += val
	default:
		return pfx.Err(fmt.Errorf("%s is not recognized", which))
	}

	return nil
}

// Each worker has to maintain its own BED since it is not safe for concurrent
// reads
func Worker(workerID int, prefix string, opts []plink.Option, entries <-chan plink.IndexEntry, output chan<- AlleleCounter) {
	b, err := plink.Open(prefix, opts...)
	if err != nil {
		log.Fatalf("Worker %d exited: %v\n", workerID, err)
	}
	defer b.Close()

	for entry := range entries {
		g, err := b.ReadOrdinal(entry)
		if err != nil {
			log.Fatalln(err)
		}

		// Only SNPs for now
		if len(g.Variant.Alleles.First()) != 1 || len(g.Variant.Alleles.Second()) != 1 {
			continue
		}

		coded := g.CodedAllele()
		other := g.Variant.Alleles.Allele(1 - g.CodedIndex)

		var codedCount, otherCount float64
		for _, d := range g.Genotypes {
			if d.IsMissing() {
				continue
			}
			codedCount += float64(d)
			otherCount += float64(2 - d)
		}

		ac := &AlleleCounter{}
		if err := ac.Add(coded, codedCount); err != nil {
			continue
		}
		if err := ac.Add(other, otherCount); err != nil {
			continue
		}

		output <- *ac
	}
}
