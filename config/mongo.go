package config

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/beans/di"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoOptions MongoDB 定义源配置，集合中每个文档保存一个组件定义
//
//	{name: "mailer", spec: "class: mail/Mailer", position: 10}
type MongoOptions struct {
	Uri         string
	Username    string
	Password    string
	Database    string
	Collection  string
	MaxPoolSize uint64
	Timeout     time.Duration
}

// NewDefaultMongoOptions 创建默认配置
func NewDefaultMongoOptions(uri string) *MongoOptions {
	return &MongoOptions{
		Uri:         uri,
		Database:    "beans",
		Collection:  "component_definitions",
		MaxPoolSize: 10,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.Database == "" || o.Collection == "" {
		return fmt.Errorf("mongo database and collection are required")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("mongo timeout must be positive")
	}
	return nil
}

// MongoDefinition 集合中的文档
type MongoDefinition struct {
	Name     string `bson:"name"`
	Spec     string `bson:"spec"`
	Position int    `bson:"position"`
}

// MongoSource MongoDB 定义源
type MongoSource struct {
	Options MongoOptions
}

func (s *MongoSource) Name() string {
	return fmt.Sprintf("Mongo(%s.%s)", s.Options.Database, s.Options.Collection)
}

func (s *MongoSource) clientOptions() *options.ClientOptions {
	clientOpts := options.Client().ApplyURI(s.Options.Uri)
	if s.Options.Username != "" || s.Options.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: s.Options.Username,
			Password: s.Options.Password,
		})
	}
	if s.Options.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(s.Options.MaxPoolSize)
	}
	clientOpts.SetConnectTimeout(s.Options.Timeout)
	return clientOpts
}

func (s *MongoSource) Load(ctx context.Context) (*di.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Options.Timeout)
	defer cancel()

	client, err := mongo.Connect(s.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}
	defer client.Disconnect(context.Background())

	coll := client.Database(s.Options.Database).Collection(s.Options.Collection)
	cursor, err := coll.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query mongo definitions: %w", err)
	}

	var docs []MongoDefinition
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode mongo definitions: %w", err)
	}

	entries := make([]entry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, entry{Name: d.Name, Spec: []byte(d.Spec)})
	}
	return decodeEntries(s.Name(), entries, true)
}
