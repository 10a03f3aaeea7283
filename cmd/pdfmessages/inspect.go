package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pyhub-apps/pdfmessages-golang/pkg/pdf"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pdf>...",
	Short: "Validate PDFs and show their metadata",
	Long: `Inspect validates each PDF with a strict reader and prints its version,
page count, encryption and document information. Use it to find out why a file
cannot be extracted, or whether an export has a text layer worth extracting
before falling back to OCR.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("password", "", "password for encrypted files")
	inspectCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	password, _ := cmd.Flags().GetString("password")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var infos []*pdf.Info
	var failed int
	for _, path := range args {
		info, err := pdf.Inspect(path, password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", errorStyle.Render("✗"), path, err)
			failed++
			continue
		}
		infos = append(infos, info)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(infos); err != nil {
			return err
		}
	} else {
		for _, info := range infos {
			printInfo(info)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be read", failed)
	}
	return nil
}

func printInfo(info *pdf.Info) {
	m := info.Metadata
	content := fmt.Sprintf("%s\n%s %s  %s %d  %s %t",
		titleStyle.Render(info.Path),
		dimStyle.Render("Version:"), info.Version,
		dimStyle.Render("Pages:"), info.PageCount,
		dimStyle.Render("Encrypted:"), info.Encrypted,
	)
	for _, field := range []struct{ label, value string }{
		{"Title:", m.Title},
		{"Author:", m.Author},
		{"Creator:", m.Creator},
		{"Producer:", m.Producer},
	} {
		if field.value != "" {
			content += fmt.Sprintf("\n%s %s", dimStyle.Render(field.label), field.value)
		}
	}
	if !m.CreationDate.IsZero() {
		content += fmt.Sprintf("\n%s %s", dimStyle.Render("Created:"), m.CreationDate.Format("2006-01-02 15:04"))
	}
	fmt.Println(boxStyle.Render(content))
}
