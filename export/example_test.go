package export_test

import (
	"fmt"
	"os"

	"github.com/jonwraymond/datasentry/check"
	"github.com/jonwraymond/datasentry/export"
)

func ExampleExport() {
	reg := check.NewRegistry()
	_, _ = reg.Load(`[{"sentry_type":"relational","description":"Orders","server":"db01","query":"SELECT 1"}]`)

	_ = export.Export(os.Stdout, reg.Snapshots(), export.FormatCSV)
	// Output:
	// Description,Type,Status,Result
	// "Orders","relational","Pending",""
}

func ExampleFormatFromPath() {
	f, err := export.FormatFromPath("results.json")
	fmt.Println(f, err)
	_, err = export.FormatFromPath("results.xlsx")
	fmt.Println(err)
	// Output:
	// json <nil>
	// export: unknown format: "xlsx"
}
