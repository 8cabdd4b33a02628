// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package report renders check results as JSON, terminal tables and XLSX
// workbooks.
package report

import "github.com/H0llyW00dzZ/probekit/src/check"

// Summary counts the outcomes of a batch by status.
type Summary struct {
	Total   int          `json:"total"`
	Success int          `json:"success"`
	Warning int          `json:"warning"`
	Error   int          `json:"error"`
	Worst   check.Status `json:"worst_status"`
}

// Summarize counts outcomes. The worst status of an empty batch is success.
func Summarize(outcomes []check.Outcome) Summary {
	s := Summary{Total: len(outcomes), Worst: check.StatusSuccess}
	for _, o := range outcomes {
		st := o.Result.Status()
		switch st {
		case check.StatusSuccess:
			s.Success++
		case check.StatusWarning:
			s.Warning++
		default:
			s.Error++
		}
		if st.Worse(s.Worst) {
			s.Worst = st
		}
	}
	return s
}

// ExitCode is the exit code of the worst status.
func (s Summary) ExitCode() int { return s.Worst.ExitCode() }
