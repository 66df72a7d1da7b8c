package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/pdf"
	"github.com/wisdom-oss/nlwkn-go/internal/report"
	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json")
	plainText    = flag.Bool("text", false, "Include the plain text extraction of the document")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: report file path required\n\n")
		printUsage()
		os.Exit(1)
	}

	result, err := dump(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := outputResult(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Report Dump - Inspect the parsing stages of a single water right report")
	fmt.Println()
	fmt.Println("The tool runs one rep<no>.pdf through text block assembly, key-value")
	fmt.Println("grouping and the field parsers and prints the intermediate stages, so")
	fmt.Println("unparsable reports can be traced to the stage that rejects them.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format        Output format: text (default), json")
	fmt.Println("  -text          Include the plain text extraction of the document")
	fmt.Println("  -help          Show this help message")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  report-dump data/reports/2024-04-04/rep1225.pdf")
	fmt.Println("  report-dump -format json rep1225.pdf")
	fmt.Println("  report-dump -text rep1225.pdf")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  report-dump [OPTIONS] <report.pdf>")
}

// dumpResult collects every stage of one report parse.
type dumpResult struct {
	Path       string                  `json:"path"`
	No         waterright.WaterRightNo `json:"no"`
	Pages      int                     `json:"pages"`
	PlainText  string                  `json:"plain_text,omitempty"`
	Pairs      []report.KeyValuePair   `json:"pairs"`
	Warnings   []string                `json:"warnings,omitempty"`
	WaterRight *waterright.WaterRight  `json:"water_right,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func dump(path string) (*dumpResult, error) {
	loaded, err := report.LoadReport(path)
	if err != nil {
		return nil, err
	}

	result := &dumpResult{Path: path, No: loaded.No, Pages: loaded.Document.PageCount()}

	if *plainText {
		// An independent extraction path, useful when the block
		// assembly below sees nothing.
		text, err := pdf.PlainText(path)
		if err != nil {
			return nil, fmt.Errorf("extracting plain text: %w", err)
		}
		result.PlainText = text
	}

	pages := make([][]report.TextBlock, 0, result.Pages)
	for pageNr := 1; pageNr <= result.Pages; pageNr++ {
		operations, err := loaded.Document.PageOperations(pageNr)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", pageNr, err)
		}
		blocks, warnings := report.AssembleTextBlocks(operations)
		pages = append(pages, blocks)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Pairs = report.GroupKeyValues(pages)

	waterRight := waterright.NewWaterRight(loaded.No)
	if err := report.ParseBlocks(pages, waterRight, report.DefaultSegmentOptions()); err != nil {
		// The pairs are still printed, they are what a failed parse
		// gets debugged with.
		result.Error = err.Error()
		return result, nil
	}

	result.WaterRight = waterRight
	return result, nil
}

func outputResult(result *dumpResult) error {
	switch *outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputText(result *dumpResult) error {
	fmt.Printf("Report: %s (%d pages)\n", result.Path, result.Pages)
	fmt.Printf("Water right no: %d\n", result.No)

	if result.PlainText != "" {
		fmt.Printf("\nPlain text:\n%s\n", result.PlainText)
	}

	fmt.Printf("\nKey-value pairs (%d):\n", len(result.Pairs))
	for _, pair := range result.Pairs {
		fmt.Printf("  %s: %s\n", pair.Key, strings.Join(pair.Values, " | "))
	}

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, warning := range result.Warnings {
			fmt.Printf("  %s\n", warning)
		}
	}

	if result.Error != "" {
		fmt.Printf("\nParsing failed: %s\n", result.Error)
		return nil
	}

	encoded, err := json.MarshalIndent(result.WaterRight, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding water right: %w", err)
	}
	fmt.Printf("\nWater right record:\n%s\n", encoded)
	return nil
}
