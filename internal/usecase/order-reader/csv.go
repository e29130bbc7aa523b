package orderreader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	orderreaderv1 "github.com/muhammadchandra19/exchange/internal/domain/order-reader/v1"
	errs "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// CSVReader reads order records from a CSV feed, one record per line.
type CSVReader struct {
	path   string
	source io.Reader
	closer io.Closer
	reader *csv.Reader
	logger *logger.Logger
}

var _ orderreaderv1.OrderReader = (*CSVReader)(nil)

// NewCSVReader creates a reader for the CSV file at path.
// The file is opened on the first ReadRecord call.
func NewCSVReader(path string, log *logger.Logger) *CSVReader {
	return &CSVReader{
		path:   path,
		logger: log,
	}
}

// NewCSVReaderFrom creates a reader over an already open source.
func NewCSVReaderFrom(source io.Reader, log *logger.Logger) *CSVReader {
	return &CSVReader{
		path:   "<stream>",
		source: source,
		logger: log,
	}
}

func (r *CSVReader) open() error {
	if r.reader != nil {
		return nil
	}

	if r.source == nil {
		f, err := os.Open(r.path)
		if err != nil {
			return errs.NewErrorDetailsWithCause(
				fmt.Sprintf("cannot open feed %s", r.path),
				errs.FeedUnavailableError,
				"path",
				fmt.Errorf("%w: %w", orderreaderv1.ErrFeedUnavailable, err),
			)
		}
		r.source = f
		r.closer = f
	}

	r.reader = csv.NewReader(r.source)
	r.reader.FieldsPerRecord = -1
	r.reader.TrimLeadingSpace = true

	r.logger.Info("order feed opened", logger.Field{Key: "path", Value: r.path})
	return nil
}

// ReadRecord returns the next record of the feed.
func (r *CSVReader) ReadRecord(ctx context.Context) (orderreaderv1.Record, error) {
	if err := ctx.Err(); err != nil {
		return orderreaderv1.Record{}, err
	}
	if err := r.open(); err != nil {
		return orderreaderv1.Record{}, err
	}

	fields, err := r.reader.Read()
	if err == nil {
		return orderreaderv1.NewRecord(fields...), nil
	}
	if errors.Is(err, io.EOF) {
		return orderreaderv1.Record{}, io.EOF
	}

	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return orderreaderv1.Record{}, errs.NewErrorDetailsWithCause(
			fmt.Sprintf("cannot parse line %d of %s", parseErr.Line, r.path),
			errs.FeedMalformedRecordError,
			"line",
			fmt.Errorf("%w: %w", orderreaderv1.ErrMalformedRecord, err),
		)
	}

	return orderreaderv1.Record{}, errs.NewErrorDetailsWithCause(
		fmt.Sprintf("cannot read feed %s", r.path),
		errs.FeedUnavailableError,
		"path",
		fmt.Errorf("%w: %w", orderreaderv1.ErrFeedUnavailable, err),
	)
}

// Close closes the underlying file, if the reader opened one.
func (r *CSVReader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
