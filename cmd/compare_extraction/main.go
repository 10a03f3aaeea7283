package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pyhub-apps/pdfmessages-golang"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

type backend struct {
	name string
	open func(string, ...pdf.TextExtractionOption) (pdf.Document, error)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: compare_extraction <pdf-file>")
		os.Exit(1)
	}

	pdfPath := os.Args[1]
	recon := pdfmessages.NewReconstructor()

	backends := []backend{
		{"ledongthuc", pdf.OpenWithLedongthuc},
		{"dslipak", pdf.OpenWithDslipak},
	}

	results := make(map[string][]string)
	for _, b := range backends {
		start := time.Now()
		doc, err := b.open(pdfPath)
		if err != nil {
			log.Printf("%s: failed to open PDF: %v", b.name, err)
			continue
		}

		pages := doc.PageCount()
		var fragments, pageErrors int
		var lines []string
		for i := 0; i < pages; i++ {
			page, err := doc.GetPage(i)
			if err != nil {
				pageErrors++
				continue
			}
			frags, err := page.Fragments()
			if err != nil {
				pageErrors++
				continue
			}
			fragments += len(frags)
			lines = append(lines, recon.Render(frags)...)
		}
		doc.Close()

		fmt.Printf("%s:\n", b.name)
		fmt.Printf("  Pages: %d\n", pages)
		fmt.Printf("  Fragments: %d\n", fragments)
		fmt.Printf("  Messages: %d\n", len(lines))
		fmt.Printf("  Page errors: %d\n", pageErrors)
		fmt.Printf("  Time: %v\n\n", time.Since(start))
		results[b.name] = lines
	}

	a, okA := results["ledongthuc"]
	b, okB := results["dslipak"]
	if !okA || !okB {
		return
	}

	// Report the first few lines where the backends disagree
	diffs := 0
	for i := 0; i < max(len(a), len(b)) && diffs < 10; i++ {
		var la, lb string
		if i < len(a) {
			la = a[i]
		}
		if i < len(b) {
			lb = b[i]
		}
		if la != lb {
			fmt.Printf("line %d:\n  ledongthuc: %s\n  dslipak:    %s\n", i+1, la, lb)
			diffs++
		}
	}
	if diffs == 0 {
		fmt.Println("Both backends produced identical output")
	}
}
