package main

import (
	"fmt"

	"github.com/gocrud/beans/di"
)

// 定义接口
type Logger interface {
	Log(msg string)
}

type Database interface {
	Connect() error
}

// 实现
type ConsoleLogger struct {
	Prefix string
}

func (c *ConsoleLogger) Log(msg string) {
	println(c.Prefix + ": " + msg)
}

type MySQLDatabase struct {
	host string // 未导出字段同样可以注入
	port int
}

func NewMySQLDatabase(host string, port int) *MySQLDatabase {
	return &MySQLDatabase{host: host, port: port}
}

func (m *MySQLDatabase) Connect() error {
	println("Connecting to MySQL at", m.host, ":", m.port)
	return nil
}

// 服务
type UserService struct {
	Logger Logger   `di:"logger"`
	DB     Database `di:"db"`
}

const definitions = `
logger:
  class: example/ConsoleLogger
  singleton: "true"
  properties:
    prefix: {value: APP}

db:
  class: example/MySQLDatabase
  singleton: "true"
  construct:
    - {value: localhost}
    - {value: "3306", type: int}

users:
  class: example/UserService
  properties:
    logger: {ref: logger}
    db: {ref: db}
`

func main() {
	types := di.NewTypeRegistry()
	di.MustRegisterType[*ConsoleLogger](types, "ConsoleLogger")
	di.MustRegisterType[*MySQLDatabase](types, "MySQLDatabase", di.WithConstructor(NewMySQLDatabase))
	di.MustRegisterType[*UserService](types, "UserService")

	doc, err := di.ParseDocument("inline", []byte(definitions))
	if err != nil {
		panic(err)
	}
	engine := di.NewEngine(di.NewDefinitionStore(doc), types)

	users := di.MustGet[*UserService](engine, "users")
	users.Logger.Log("service ready")
	if err := users.DB.Connect(); err != nil {
		panic(err)
	}

	// 单例在两次调用间共享
	again := di.MustGet[*UserService](engine, "users")
	fmt.Println("same logger:", users.Logger == again.Logger, "same service:", users == again)
}
