package data

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
)

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	// LabelColumn names the class column. Empty selects the last column.
	LabelColumn string
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Correct and Distractor are the Outcome values. Both zero means 1 and -1.
	Correct    float64
	Distractor float64
}

// ReadCSV loads a DataSet from CSV with a header row. The label column gives
// the class of each row; every other column must be numeric and forms a
// single-layer Input. Classes are numbered from 0 in ascending label order.
func ReadCSV(r io.Reader, opts CSVOptions) (*DataSet, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) < 2 {
		return nil, errors.NewInsufficientDataError("read_csv", 1, 0)
	}

	header := records[0]
	labelCol := len(header) - 1
	if opts.LabelColumn != "" {
		labelCol = -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), opts.LabelColumn) {
				labelCol = i
				break
			}
		}
		if labelCol < 0 {
			return nil, errors.NewConfigurationError("label_column", "column not found in header", opts.LabelColumn)
		}
	}
	if len(header) < 2 {
		return nil, errors.NewValueError("read_csv", "at least one feature column and one label column are required")
	}

	labelSet := map[string]struct{}{}
	for _, rec := range records[1:] {
		labelSet[strings.TrimSpace(rec[labelCol])] = struct{}{}
	}
	labels := make([]string, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	names := make(map[Class]string, len(labels))
	classOf := make(map[string]Class, len(labels))
	for i, l := range labels {
		names[Class(i)] = l
		classOf[l] = Class(i)
	}
	ds, err := NewDataSet(names)
	if err != nil {
		return nil, err
	}

	correct, distractor := opts.Correct, opts.Distractor
	if correct == 0 && distractor == 0 {
		correct, distractor = 1, -1
	}

	for line, rec := range records[1:] {
		features := make([]float64, 0, len(rec)-1)
		for i, field := range rec {
			if i == labelCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "csv line %d, column %q", line+2, header[i])
			}
			features = append(features, v)
		}
		input, err := NewInput([][]float64{features})
		if err != nil {
			return nil, err
		}
		outcome := NewOutcome(classOf[strings.TrimSpace(rec[labelCol])], correct, distractor)
		if err := ds.Add(input, outcome); err != nil {
			return nil, errors.Wrapf(err, "csv line %d", line+2)
		}
	}

	log.GetLoggerWithName("data").Info("csv data set loaded",
		log.OperationKey, log.OperationIngest,
		log.PointsKey, ds.Len(),
		log.ClassesKey, len(labels),
		log.ShapeKey, ds.Shape().Ints(),
	)
	return ds, nil
}
