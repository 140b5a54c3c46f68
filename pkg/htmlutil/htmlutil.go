package htmlutil

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("fcrawatch/htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText collapses the whitespace of a piece of rendered text (newlines
// included) into single spaces and drops non-printable characters.
func CleanText(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ").Replace(s)
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

type Option struct {
	Value string
	Label string
}

// GetOptions returns the <option> children of a <select> in document order.
func GetOptions(ctx context.Context, sel *goquery.Selection) []Option {
	_, span := tracer.Start(ctx, "GetOptions")
	defer span.End()

	options := []Option{}
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		label := CleanText(GetText(opt.Get(0)))
		value, ok := opt.Attr("value")
		if !ok {
			// browsers submit the label when there is no value attribute
			value = label
		}
		options = append(options, Option{
			Value: strings.TrimSpace(value),
			Label: label,
		})
		span.AddEvent("option", trace.WithAttributes(
			attribute.String("value", value),
			attribute.String("label", label),
		))
	})
	return options
}

// GetSelected returns the value of the selected option of a <select>, or the
// first option if none is marked.
func GetSelected(sel *goquery.Selection) string {
	selected := sel.Find("option[selected]").First()
	if selected.Length() == 0 {
		selected = sel.Find("option").First()
	}
	if value, ok := selected.Attr("value"); ok {
		return strings.TrimSpace(value)
	}
	return CleanText(selected.Text())
}

// GetTableRows returns the cleaned text of the cells of every <tr> in table,
// header cells (<th>) included.
func GetTableRows(table *goquery.Selection) [][]string {
	rows := [][]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.Children().Filter("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, CleanText(GetText(cell.Get(0))))
		})
		rows = append(rows, cells)
	})
	return rows
}
