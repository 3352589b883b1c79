package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/service/presentation"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSearch(w io.Writer, page model.ResultPage[model.OccurrenceSummary]) error {
	if len(page.Items) == 0 {
		_, err := fmt.Fprintln(w, "no occurrences found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSPECIES\tPROJECT\tUSER\tCREATED")
	for _, o := range page.Items {
		created := ""
		if o.CreatedAt != nil {
			created = o.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", o.OccurrenceID, dash(o.Species()), dash(o.ProjectName), dash(o.UserName), dash(created))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d of %d, %d results\n", page.CurrentPage, page.TotalPages, page.TotalResults)
	return err
}

func printView(w io.Writer, view presentation.View) error {
	fmt.Fprintln(w, view.Title)
	for _, section := range view.Sections {
		fmt.Fprintf(w, "\n%s\n", section.Title)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		writeFields(tw, "  ", section.Fields)
		for i, entry := range section.Entries {
			fmt.Fprintf(tw, "  #%d\t\n", i+1)
			writeFields(tw, "    ", entry.Fields)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func writeFields(w io.Writer, indent string, fields []presentation.Field) {
	for _, f := range fields {
		fmt.Fprintf(w, "%s%s\t%v\n", indent, f.Label, f.Value)
	}
}

func printAudit(w io.Writer, events []model.AuditEvent) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tUSER\tOCCURRENCE\tRESULTS\tCRITERIA")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Action,
			optional(e.UserID),
			optional(e.OccurrenceID),
			optionalInt(e.ResultCount),
			dash(string(e.Criteria)),
		)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func optional(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
