package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pyhub-apps/pdfmessages-golang"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: benchmark <pdf-file>")
		os.Exit(1)
	}

	pdfPath := os.Args[1]

	// Warm-up run
	doc, err := pdfmessages.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	doc.Close()

	// Benchmark PDF opening
	start := time.Now()
	doc, err = pdfmessages.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()
	openTime := time.Since(start)

	fmt.Printf("=== pdfmessages Benchmark ===\n")
	fmt.Printf("File: %s\n", pdfPath)
	fmt.Printf("Pages: %d\n", doc.PageCount())
	fmt.Printf("Open time: %v\n", openTime)

	// Benchmark fragment extraction
	pages := make([][]pdfmessages.Fragment, 0, doc.PageCount())
	var totalFragments int
	start = time.Now()
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			continue
		}
		fragments, err := page.Fragments()
		if err != nil {
			continue
		}
		totalFragments += len(fragments)
		pages = append(pages, fragments)
	}
	extractTime := time.Since(start)

	fmt.Printf("Fragment extraction time: %v\n", extractTime)
	fmt.Printf("Total fragments: %d\n", totalFragments)

	// Benchmark line reconstruction
	recon := pdfmessages.NewReconstructor()
	var totalLines int
	start = time.Now()
	for _, fragments := range pages {
		totalLines += len(recon.Render(fragments))
	}
	reconTime := time.Since(start)

	fmt.Printf("Reconstruction time: %v\n", reconTime)
	fmt.Printf("Total messages: %d\n", totalLines)
	if reconTime > 0 {
		fmt.Printf("Fragments/sec: %.0f\n", float64(totalFragments)/reconTime.Seconds())
	}

	fmt.Printf("\nTotal time: %v\n", openTime+extractTime+reconTime)
}
