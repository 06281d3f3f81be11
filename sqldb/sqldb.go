package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

type DBer interface {
	CreateTable(ctx context.Context, t TableData) error
	Insert(ctx context.Context, t TableData) error
}

type Sqldb struct {
	options
	db *sql.DB
}

type Field struct {
	Title string
	Type  string
}

type TableData struct {
	TableName   string
	ColumnNames []Field
	Args        []interface{}
	// DataCount is the number of rows carried by Args.
	DataCount int
	AutoKey   bool
}

var (
	errNoColumns = errors.New("column can not be empty")
	errArgCount  = errors.New("args do not fill the rows")
)

func New(opts ...Option) (*Sqldb, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	d := &Sqldb{}
	d.options = options

	if err := d.OpenDB(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Sqldb) OpenDB() error {
	db, err := sql.Open("mysql", d.sqlURL)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(d.maxConns)
	db.SetMaxIdleConns(d.maxConns)

	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}

	d.db = db

	return nil
}

func (d *Sqldb) Close() error {
	return d.db.Close()
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "") + "`"
}

func createSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errNoColumns
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + quote(t.TableName) + " (")
	if t.AutoKey {
		b.WriteString("id INT(12) NOT NULL PRIMARY KEY AUTO_INCREMENT,")
	}
	for i, c := range t.ColumnNames {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(quote(c.Title) + " " + c.Type)
	}
	b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;")

	return b.String(), nil
}

func insertSQL(t TableData) (string, error) {
	if len(t.ColumnNames) == 0 {
		return "", errNoColumns
	}
	if t.DataCount <= 0 || len(t.Args) != t.DataCount*len(t.ColumnNames) {
		return "", errArgCount
	}

	cols := make([]string, 0, len(t.ColumnNames))
	for _, c := range t.ColumnNames {
		cols = append(cols, quote(c.Title))
	}

	row := "(" + strings.Repeat(",?", len(t.ColumnNames))[1:] + ")"
	rows := strings.Repeat(","+row, t.DataCount)[1:]

	return "INSERT INTO " + quote(t.TableName) + " (" + strings.Join(cols, ",") + ") VALUES " + rows + ";", nil
}

func (d *Sqldb) CreateTable(ctx context.Context, t TableData) error {
	stmt, err := createSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("create table", zap.String("sql", stmt))

	_, err = d.db.ExecContext(ctx, stmt)

	return err
}

func (d *Sqldb) DropTable(ctx context.Context, t TableData) error {
	stmt := "DROP TABLE IF EXISTS " + quote(t.TableName)

	d.logger.Debug("drop table", zap.String("sql", stmt))

	_, err := d.db.ExecContext(ctx, stmt)

	return err
}

func (d *Sqldb) Insert(ctx context.Context, t TableData) error {
	stmt, err := insertSQL(t)
	if err != nil {
		return err
	}

	d.logger.Debug("insert table", zap.String("sql", stmt), zap.Int("rows", t.DataCount))

	_, err = d.db.ExecContext(ctx, stmt, t.Args...)

	return err
}
