package ocr

import (
	"fmt"
	"sort"
	"strings"
)

// Demo OCR results for exercising verification without an OCR key. The texts
// mirror real certificate layouts the system was tuned on.
var demoResults = map[string]*Result{
	"saksham": {
		Success:    true,
		Confidence: 0.92,
		Text: `CERTIFICATE OF COMPLETION

This is to certify that

SAKSHAM SHARMA

has successfully completed the course

B.Tech Computer Engineering

from

DevLabs Institute

in the year 2023

Registration Number: ABC2023001

Date of Issue: December 2023`,
	},
	"prisha": {
		Success:    true,
		Confidence: 0.88,
		Text: `GRADUATION CERTIFICATE

This certifies that

PRISHA VERMA

has completed

M.Tech AI

from

Global Tech University

Year: 2022

Registration: ABC2022007`,
	},
}

// DemoResult returns a canned OCR result by name ("saksham", "prisha").
func DemoResult(name string) (*Result, error) {
	result, ok := demoResults[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(demoResults))
		for n := range demoResults {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown demo certificate %q (available: %s)", name, strings.Join(names, ", "))
	}
	copied := *result
	return &copied, nil
}
