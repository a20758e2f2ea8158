package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/rhizo"
	"github.com/lychee-technology/rhizo/factory"
)

type options struct {
	configFile   string
	listingCount int
	iterations   int
	chunkSize    int
	noCache      bool
	validate     bool
	export       bool
	seed         int64
	seedProvided bool
}

var (
	cities   = []string{"Berlin", "Lisbon", "Oslo", "Porto", "Vienna", "Zurich"}
	features = []string{"balcony", "elevator", "garden", "parking", "pool", "terrace"}
)

type cityDescriptor struct{}

func (cityDescriptor) Kind() rhizo.Kind     { return rhizo.KindCategory }
func (cityDescriptor) Categories() []string { return cities }
func (cityDescriptor) Multiple() bool       { return false }
func (cityDescriptor) Hierarchy() bool      { return false }

type priceDescriptor struct{}

func (priceDescriptor) Kind() rhizo.Kind  { return rhizo.KindDecimalRange }
func (priceDescriptor) MinRange() float64 { return 0 }
func (priceDescriptor) MaxRange() float64 { return 5000000 }
func (priceDescriptor) Stepping() float64 { return 0 }
func (priceDescriptor) Steps() float64    { return 20 }
func (priceDescriptor) Precision() int    { return 0 }

// listing is the synthetic model bridged by the benchmark.
type listing struct {
	id       string
	city     string
	price    float64
	bedrooms int
	listed   time.Time
	features []string
	location [2]float64
}

func (l *listing) ID() string           { return l.id }
func (l *listing) City() string         { return l.city }
func (l *listing) Price() float64       { return l.price }
func (l *listing) Bedrooms() int        { return l.bedrooms }
func (l *listing) ListedOn() time.Time  { return l.listed }
func (l *listing) Features() []string   { return l.features }
func (l *listing) Location() [2]float64 { return l.location }

func (l *listing) ModelAttributes() rhizo.AttributeTags {
	return rhizo.AttributeTags{
		"ID":       {ModelID: true},
		"City":     {Descriptor: func() rhizo.AttributeDescriptor { return cityDescriptor{} }},
		"Price":    {Descriptor: func() rhizo.AttributeDescriptor { return priceDescriptor{} }},
		"Bedrooms": {},
		"ListedOn": {Name: "listed", Label: "Listed on"},
		"Features": {},
		"Location": {Opaque: true},
	}
}

func main() {
	log.SetFlags(0)

	opts := parseFlags()
	ctx := context.Background()

	config := rhizo.DefaultConfig()
	if opts.configFile != "" {
		loaded, err := rhizo.LoadConfig(opts.configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		config = loaded
	}
	config.Mapping.CacheEnabled = !opts.noCache
	config.Export.BatchSize = opts.chunkSize

	if !opts.seedProvided {
		log.Printf("[info] Using random seed %d", opts.seed)
	}
	random := rand.New(rand.NewSource(opts.seed))

	start := time.Now()
	listings := buildListings(opts.listingCount, random)
	log.Printf("[info] Generated %d listings in %v", len(listings), time.Since(start))

	registry, err := factory.NewMappingRegistry(config)
	if err != nil {
		log.Fatalf("failed to create mapping registry: %v", err)
	}

	var (
		generateTotal time.Duration
		bridgeTotal   time.Duration
		dataset       *rhizo.Dataset
	)
	for i := 0; i < opts.iterations; i++ {
		start = time.Now()
		mapping, err := rhizo.MappingOf[*listing](registry)
		if err != nil {
			log.Fatalf("failed to generate mapping: %v", err)
		}
		generated := time.Since(start)

		start = time.Now()
		dataset, err = rhizo.BuildDataset(mapping, listings)
		if err != nil {
			log.Fatalf("failed to bridge listings: %v", err)
		}
		bridged := time.Since(start)

		generateTotal += generated
		bridgeTotal += bridged
		log.Printf("[run %d] mapping %v, bridge %v (%.0f records/s)", i+1, generated, bridged, perSecond(len(listings), bridged))
	}

	log.Printf("[info] Average mapping lookup: %v (cache enabled: %t)", generateTotal/time.Duration(opts.iterations), config.Mapping.CacheEnabled)
	log.Printf("[info] Average bridge time: %v", bridgeTotal/time.Duration(opts.iterations))

	if opts.validate {
		start = time.Now()
		if err := factory.ValidateDataset(dataset); err != nil {
			log.Fatalf("validation failed: %v", err)
		}
		log.Printf("[info] Validated %d records in %v", dataset.Len(), time.Since(start))
	}

	if opts.export {
		config.Validation.Enabled = false
		exporter, err := factory.NewExporter(ctx, config)
		if err != nil {
			log.Fatalf("failed to open sink: %v", err)
		}
		defer exporter.Close()

		start = time.Now()
		if err := exporter.Export(ctx, dataset); err != nil {
			log.Fatalf("export failed: %v", err)
		}
		elapsed := time.Since(start)
		log.Printf("[info] Exported %d records to %q in %v (%.0f records/s)", dataset.Len(), config.Export.Sink, elapsed, perSecond(dataset.Len(), elapsed))
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configFile, "config", "", "YAML or JSON config file selecting the sink")
	flag.IntVar(&opts.listingCount, "listings", 100*1000, "number of listing records to generate")
	flag.IntVar(&opts.iterations, "iterations", 3, "number of bridge runs")
	flag.IntVar(&opts.chunkSize, "chunk-size", 1000, "number of records written per sink batch")
	flag.BoolVar(&opts.noCache, "no-cache", false, "regenerate the mapping on every run")
	flag.BoolVar(&opts.validate, "validate", false, "validate the bridged dataset against its JSON schema")
	flag.BoolVar(&opts.export, "export", false, "export the last bridged dataset to the configured sink")
	seed := flag.Int64("seed", 0, "random seed (0 uses current time)")

	flag.Parse()

	if *seed == 0 {
		opts.seed = time.Now().UnixNano()
		opts.seedProvided = false
	} else {
		opts.seed = *seed
		opts.seedProvided = true
	}

	if opts.chunkSize <= 0 {
		opts.chunkSize = 1000
	}
	if opts.iterations <= 0 {
		opts.iterations = 1
	}
	if opts.listingCount < 0 {
		log.Fatal("listing count must be non-negative")
	}

	return opts
}

func buildListings(count int, r *rand.Rand) []*listing {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	listings := make([]*listing, count)
	for i := range listings {
		listings[i] = &listing{
			id:       uuid.Must(uuid.NewRandomFromReader(r)).String(),
			city:     randomChoice(r, cities),
			price:    float64(50000 + r.Intn(2000000)),
			bedrooms: 1 + r.Intn(6),
			listed:   base.Add(time.Duration(r.Intn(5*365*24)) * time.Hour),
			features: uniqueSample(r, features, r.Intn(len(features)+1)),
			location: [2]float64{-90 + 180*r.Float64(), -180 + 360*r.Float64()},
		}
	}
	return listings
}

func perSecond(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}

func randomChoice(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}

func uniqueSample(r *rand.Rand, values []string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if count >= len(values) {
		return append([]string{}, values...)
	}

	perm := r.Perm(len(values))
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, values[perm[i]])
	}
	return result
}
