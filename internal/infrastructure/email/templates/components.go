// Package templates provides email template components
package templates

import (
	"bytes"
	"html/template"
	"log"
)

// Compiled templates for email components
var (
	headingTemplate = template.Must(template.New("emailHeading").Parse(
		`<h2 style="font-family: Helvetica, sans-serif; font-size: 20px; font-weight: bold; margin: 0; margin-bottom: 16px;">{{.}}</h2>`))

	paragraphTemplate = template.Must(template.New("emailParagraph").Parse(
		`<p style="font-family: Helvetica, sans-serif; font-size: 16px; font-weight: normal; margin: 0; margin-bottom: 16px;">{{.}}</p>`))
)

// GetHeading renders an escaped heading line.
func GetHeading(text string) string {
	var buf bytes.Buffer
	if err := headingTemplate.Execute(&buf, text); err != nil {
		log.Printf("Error executing email heading template: %v", err)
		return ""
	}
	return buf.String()
}

// GetParagraph renders an escaped paragraph.
func GetParagraph(text string) string {
	var buf bytes.Buffer
	if err := paragraphTemplate.Execute(&buf, text); err != nil {
		log.Printf("Error executing email paragraph template: %v", err)
		return ""
	}
	return buf.String()
}
