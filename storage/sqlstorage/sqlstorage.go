package sqlstorage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dreamerjackson/shopcrawler/field"
	"github.com/dreamerjackson/shopcrawler/spider"
	"github.com/dreamerjackson/shopcrawler/sqldb"
	"go.uber.org/zap"
)

// SQLStorage mirrors emitted records into one MySQL table per site. Rows are
// buffered and written in batches of BatchCount.
type SQLStorage struct {
	dataDocker []*spider.DataCell
	db         sqldb.DBer
	Table      map[string]struct{}
	options
}

var _ spider.Storage = (*SQLStorage)(nil)

func New(opts ...Option) (*SQLStorage, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	db, err := sqldb.New(
		sqldb.WithConnURL(options.sqlURL),
		sqldb.WithLogger(options.logger),
	)
	if err != nil {
		return nil, err
	}

	return newWithDB(db, options), nil
}

func newWithDB(db sqldb.DBer, options options) *SQLStorage {
	return &SQLStorage{
		db:      db,
		Table:   make(map[string]struct{}),
		options: options,
	}
}

func (s *SQLStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQLStorage) Save(dataCells ...*spider.DataCell) error {
	for _, cell := range dataCells {
		name := cell.GetTableName()
		if _, ok := s.Table[name]; !ok {
			ctx, cancel := s.ctx()
			err := s.db.CreateTable(ctx, sqldb.TableData{
				TableName:   name,
				ColumnNames: columns(),
				AutoKey:     true,
			})
			cancel()
			if err != nil {
				return err
			}

			s.Table[name] = struct{}{}
		}

		if len(s.dataDocker) >= s.BatchCount {
			if err := s.Flush(); err != nil {
				s.logger.Error("insert data failed", zap.Error(err))
			}
		}

		s.dataDocker = append(s.dataDocker, cell)
	}

	return nil
}

// columns is the same for every site so that runs with different field
// selections share a table. Fields a run did not request stay empty.
func columns() []sqldb.Field {
	cols := make([]sqldb.Field, 0, len(field.All)+1)
	for _, n := range field.All {
		cols = append(cols, sqldb.Field{Title: string(n), Type: "MEDIUMTEXT"})
	}

	return append(cols, sqldb.Field{Title: "scraped_at", Type: "VARCHAR(64)"})
}

func values(cell *spider.DataCell) []interface{} {
	wanted := make(map[field.Name]bool, len(cell.Fields))
	for _, n := range cell.Fields {
		wanted[n] = true
	}

	row := make([]interface{}, 0, len(field.All)+1)
	for _, n := range field.All {
		v := cell.Data[n]
		if !wanted[n] && len(cell.Fields) > 0 {
			v = nil
		}
		row = append(row, columnValue(v))
	}

	return append(row, cell.Time.UTC().Format(time.RFC3339))
}

func columnValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		j, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(j)
	}
}

// Flush writes buffered rows, one INSERT per table.
func (s *SQLStorage) Flush() error {
	if len(s.dataDocker) == 0 {
		return nil
	}

	defer func() {
		s.dataDocker = nil
	}()

	var (
		order  []string
		tables = make(map[string][]*spider.DataCell)
	)
	for _, cell := range s.dataDocker {
		name := cell.GetTableName()
		if _, ok := tables[name]; !ok {
			order = append(order, name)
		}
		tables[name] = append(tables[name], cell)
	}

	for _, name := range order {
		cells := tables[name]
		args := make([]interface{}, 0, len(cells)*(len(field.All)+1))
		for _, cell := range cells {
			args = append(args, values(cell)...)
		}

		ctx, cancel := s.ctx()
		err := s.db.Insert(ctx, sqldb.TableData{
			TableName:   name,
			ColumnNames: columns(),
			Args:        args,
			DataCount:   len(cells),
		})
		cancel()
		if err != nil {
			return err
		}
	}

	return nil
}
