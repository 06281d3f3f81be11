package spider

import (
	"time"

	"github.com/dreamerjackson/shopcrawler/field"
)

// Storage receives every emitted record in addition to the controller stream.
type Storage interface {
	Save(datas ...*DataCell) error
	Flush() error
}

type DataCell struct {
	Site   string
	Fields []field.Name
	Data   field.Record
	Time   time.Time
}

func (d *DataCell) GetTableName() string {
	return "products_" + d.Site
}
