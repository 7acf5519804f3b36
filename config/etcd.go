package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocrud/beans/di"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOptions etcd 定义源配置，前缀下每个键存放一个组件定义
//
//	/beans/definitions/mailer -> "class: mail/Mailer\nsingleton: \"true\""
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀，去掉前缀后的部分作为组件名
	DialTimeout time.Duration // 拨号超时时间
	Timeout     time.Duration // 读取超时时间
}

// NewDefaultEtcdOptions 创建默认配置
func NewDefaultEtcdOptions() *EtcdOptions {
	return &EtcdOptions{
		Endpoints:   []string{"localhost:2379"},
		Prefix:      "/beans/definitions/",
		DialTimeout: 5 * time.Second,
		Timeout:     5 * time.Second,
	}
}

// Validate 验证配置
func (o *EtcdOptions) Validate() error {
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.Prefix == "" {
		return fmt.Errorf("etcd key prefix is required")
	}
	if o.DialTimeout <= 0 || o.Timeout <= 0 {
		return fmt.Errorf("etcd timeouts must be positive")
	}
	return nil
}

// EtcdSource etcd 定义源
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v%s)", s.Options.Endpoints, s.Options.Prefix)
}

func (s *EtcdSource) Load(ctx context.Context) (*di.Document, error) {
	// 创建 etcd 客户端
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, s.Options.Timeout)
	defer cancel()

	resp, err := cli.Get(ctx, s.Options.Prefix,
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("failed to get definitions from etcd: %w", err)
	}

	entries := make([]entry, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		name := etcdComponentName(s.Options.Prefix, string(kv.Key))
		if name == "" {
			continue
		}
		entries = append(entries, entry{Name: name, Spec: kv.Value})
	}
	return decodeEntries(s.Name(), entries, true)
}

// etcdComponentName 去掉前缀与首尾斜杠，嵌套路径用 "." 连接
func etcdComponentName(prefix, key string) string {
	name := strings.Trim(strings.TrimPrefix(key, prefix), "/")
	return strings.ReplaceAll(name, "/", ".")
}
