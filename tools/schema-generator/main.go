package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/grovetools/ckanconsole/config"
	"github.com/grovetools/ckanconsole/schema"
)

func main() {
	outputDir := flag.String("out", "schema/definitions", "directory to write schema files into")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	configSchema, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating config schema: %v", err)
	}
	write(filepath.Join(*outputDir, "ckan-console.schema.json"), configSchema)

	docs, err := schema.Documents()
	if err != nil {
		log.Fatalf("Error generating payload schemas: %v", err)
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		write(filepath.Join(*outputDir, "payloads", name+".schema.json"), docs[name])
	}
}

func write(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Error creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}
	log.Printf("Wrote %s", path)
}
