package main

import (
	"fmt"
	"os"

	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
)

type Conn struct {
	DSN string
}

type Pool struct {
	DSN  string
	Size int
}

func (p *Pool) Acquire() (*Conn, error) {
	if p.DSN == "" {
		return nil, fmt.Errorf("pool has no dsn")
	}
	return &Conn{DSN: p.DSN}, nil
}

type Clock struct{ Zone string }

func main() {
	types := di.NewTypeRegistry()
	di.MustRegisterType[*Pool](types, "Pool")
	di.MustRegisterType[*Conn](types, "Conn")
	di.MustRegisterType[*Clock](types, "Clock",
		di.WithStaticFactory("utc", func() *Clock { return &Clock{Zone: "UTC"} }))

	doc, err := di.ParseDocument("inline", []byte(`
pool:
  class: db/Pool
  singleton: "true"
  properties:
    DSN:  {value: "sqlite://demo.db"}
    Size: {value: "4", type: int}
conn:
  class: db/Conn
  factory-bean: pool
  factory-method: acquire
clock:
  class: time/Clock
  factory-method: utc
`))
	if err != nil {
		panic(err)
	}

	logger := logging.New(logging.Options{Level: logging.LogLevelDebug, Output: os.Stdout})
	engine := di.NewEngine(di.NewDefinitionStore(doc), types, di.WithLogger(logger))

	conn := di.MustGet[*Conn](engine, "conn")
	clock := di.MustGet[*Clock](engine, "clock")
	fmt.Println("conn:", conn.DSN, "clock:", clock.Zone, "singletons:", engine.Singletons())
}
