package curriculum

import (
	"context"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/outcomes.csv
var bundledCSV string

// Loader yields the curriculum table.
type Loader interface {
	Load(ctx context.Context) ([]Outcome, error)
}

// CSVLoader reads outcomes from a CSV file with the columns grade,
// category, identifier, description and a header row. An empty Path reads
// the bundled table.
type CSVLoader struct {
	Path string
}

func (l CSVLoader) Load(ctx context.Context) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Path == "" {
		return parseCSV(strings.NewReader(bundledCSV))
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]Outcome, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Outcome
	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse curriculum: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(rec) < 3 {
			continue
		}
		o := Outcome{
			Grade:    NormalizeGrade(rec[0]),
			Category: strings.TrimSpace(rec[1]),
			ID:       strings.TrimSpace(rec[2]),
		}
		if len(rec) > 3 {
			o.Description = strings.TrimSpace(rec[3])
		}
		if o.Grade == "" || o.ID == "" {
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, errors.New("curriculum table is empty")
	}
	return out, nil
}

// fallbackOutcomes is used when the table cannot be loaded.
var fallbackOutcomes = []Outcome{
	{Grade: "K", Category: "Number", ID: "N.1", Description: "Say the number sequence 1 to 10 by 1s, starting anywhere from 1 to 10 and from 10 to 1."},
	{Grade: "1", Category: "Number", ID: "N.1", Description: "Say the number sequence 0 to 100 by 1s, 2s, 5s and 10s, forward and backward, using starting points that are multiples of 1, 2, 5 and 10 respectively."},
	{Grade: "2", Category: "Number", ID: "N.1", Description: "Say the number sequence 0 to 100 by 5s, 10s and 2s, forward and backward, using starting points that are multiples of 5, 10 and 2 respectively."},
	{Grade: "3", Category: "Number", ID: "N.1", Description: "Say the number sequence between any two given numbers forward and backward by 1s, 2s, 5s, 10s, 25s and 100s, using starting points that are multiples."},
	{Grade: "4", Category: "Number", ID: "N.1", Description: "Represent and describe whole numbers to 10 000, pictorially and symbolically."},
	{Grade: "5", Category: "Number", ID: "N.1", Description: "Represent and describe whole numbers to 1 000 000."},
}
