// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"encoding/json"
	"io"

	"github.com/H0llyW00dzZ/probekit/src/check"
)

type jsonOutcome struct {
	ID     string       `json:"id"`
	Type   string       `json:"check_type"`
	Result check.Result `json:"result"`
}

type jsonBatch struct {
	Summary Summary       `json:"summary"`
	Results []jsonOutcome `json:"results"`
}

// WriteJSON writes the summary and every outcome, in request order, as one
// indented JSON document.
func WriteJSON(w io.Writer, outcomes []check.Outcome) error {
	doc := jsonBatch{
		Summary: Summarize(outcomes),
		Results: make([]jsonOutcome, len(outcomes)),
	}
	for i, o := range outcomes {
		doc.Results[i] = jsonOutcome{ID: o.Request.ID, Type: o.Request.Type, Result: o.Result}
	}
	return encode(w, doc)
}

// WriteResultJSON writes a single result in its canonical form.
func WriteResultJSON(w io.Writer, res check.Result) error {
	return encode(w, res)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
