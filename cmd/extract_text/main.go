package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pyhub-apps/pdfmessages-golang"
	"github.com/pyhub-apps/pdfmessages-golang/pkg/extractors"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: extract_text <pdf_file>")
		os.Exit(1)
	}

	pdfPath := os.Args[1]

	// Open the PDF file
	fmt.Printf("Opening PDF: %s\n", pdfPath)
	doc, err := pdfmessages.Open(pdfPath)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	fmt.Printf("Document has %d pages\n\n", doc.PageCount())

	recon := pdfmessages.NewReconstructor(pdfmessages.WithFormatter(extractors.PlainFormatter))

	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.GetPage(i)
		if err != nil {
			log.Printf("Failed to get page %d: %v", i+1, err)
			continue
		}

		fmt.Printf("=== Page %d ===\n", page.GetPageNumber())
		fmt.Printf("Size: %.2f x %.2f\n", page.GetWidth(), page.GetHeight())

		fragments, err := page.Fragments()
		if err != nil {
			log.Printf("Failed to read page %d: %v", i+1, err)
			continue
		}
		fmt.Printf("Fragments: %d\n", len(fragments))

		// Show first few fragments with positions
		shown := min(len(fragments), 5)
		for _, f := range fragments[:shown] {
			fmt.Printf("  %q at (%.2f, %.2f) width=%.2f\n", f.Text, f.X, f.Y, f.Width)
		}

		lines := recon.Render(fragments)
		if len(lines) == 0 {
			fmt.Println("\nNo messages found on this page")
		} else {
			fmt.Println("\nMessages:")
			for _, line := range lines {
				fmt.Println(line)
			}
		}

		fmt.Println()
	}
}
