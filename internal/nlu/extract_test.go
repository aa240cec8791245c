package nlu

import (
	"testing"

	"github.com/tianputao/data-pipeline-agent/internal/domain"
)

func TestExtractHostPort(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		host string
		port int
	}{
		{name: "zh_label", text: "地址为db.example.com 的库", host: "db.example.com", port: 0},
		{name: "en_label", text: "host: pg.internal, table orders", host: "pg.internal", port: 0},
		{name: "explicit_port", text: "主机为10.0.0.8:5433 数据库为sales", host: "10.0.0.8", port: 5433},
		{name: "non_numeric_port", text: "host=db.local:abc", host: "db.local", port: 0},
		{name: "absent", text: "把 orders 表写入 test.out1", host: "", port: 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := Extract(tc.text)
			if f.Host != tc.host {
				t.Fatalf("Host = %q, want %q", f.Host, tc.host)
			}
			if f.Port != tc.port {
				t.Fatalf("Port = %d, want %d", f.Port, tc.port)
			}
		})
	}
}

func TestExtractSourceTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "zh_label", text: "表名为vwtable1 用户名：alice，写入表 test.out1", want: "vwtable1"},
		{name: "qualified", text: "源表为public.orders 写入 databricks", want: "public.orders"},
		{name: "en_label", text: "source table orders, write to test.pgsqltest1", want: "orders"},
		{name: "schema_hint", text: "源 schema=sales 表名为orders 写入表 test.out1", want: "sales.orders"},
		{name: "suffix_form", text: "把 orders 表同步到 test.out1", want: "orders"},
		{name: "reserved_token", text: "写入 databricks 表", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Extract(tc.text).SourceTable; got != tc.want {
				t.Fatalf("SourceTable = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractSinkTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		text   string
		want   string
		schema string
	}{
		{name: "write_keyword", text: "表名为vwtable1，写入表 test.out1", want: "test.out1"},
		{name: "de_biao", text: "同步到 sales.daily 的表", want: "sales.daily"},
		{name: "bare_with_schema", text: "写入 schema=mart 表名为out1", want: "mart.out1", schema: "mart"},
		{name: "labeled_bare_stays_bare", text: "写入表名为out1", want: "out1"},
		{name: "bare_placeholder", text: "导入到 out1 表", want: "default.out1"},
		{name: "hostname_rejected", text: "写入 db-internal.example.com 的 out1 表", want: "default.out1"},
		{name: "absent", text: "从 postgres 表名为orders 抽取数据", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := Extract(tc.text)
			if f.SinkTable != tc.want {
				t.Fatalf("SinkTable = %q, want %q", f.SinkTable, tc.want)
			}
			if tc.schema != "" && f.SinkSchema != tc.schema {
				t.Fatalf("SinkSchema = %q, want %q", f.SinkSchema, tc.schema)
			}
		})
	}
}

func TestSegmentationKeepsSourceAndSinkApart(t *testing.T) {
	t.Parallel()
	f := Extract("source table orders, write to test.pgsqltest1")
	if f.SourceTable != "orders" {
		t.Fatalf("SourceTable = %q, want %q", f.SourceTable, "orders")
	}
	if f.SinkTable != "test.pgsqltest1" {
		t.Fatalf("SinkTable = %q, want %q", f.SinkTable, "test.pgsqltest1")
	}
}

func TestDetectSourceType(t *testing.T) {
	t.Parallel()
	cases := []struct {
		text string
		want domain.SourceType
	}{
		{text: "从 postgresql 数据库抽取", want: domain.SourcePostgres},
		{text: "pgsql 地址为x", want: domain.SourcePostgres},
		{text: "MySQL database orders", want: domain.SourceMySQL},
		{text: "azure sql 数据库", want: domain.SourceSQLServer},
		{text: "SQL Server 地址为y", want: domain.SourceSQLServer},
		{text: "kafka topic=orders", want: domain.SourceKafka},
		{text: "event hub 主题", want: domain.SourceEventHubs},
		{text: "没有类型", want: ""},
	}
	for _, tc := range cases {
		if got := Extract(tc.text).SourceType; got != tc.want {
			t.Fatalf("Extract(%q).SourceType = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestExtractMiscFields(t *testing.T) {
	t.Parallel()
	text := "从 kafka topic=orders 增量字段为updated_at layer=silver 实时覆盖写入 abfss://bucket@account.dfs.core.windows.net/root/ 表 mart.orders"
	f := Extract(text)
	if f.Topic != "orders" {
		t.Fatalf("Topic = %q, want %q", f.Topic, "orders")
	}
	if f.IncrementField != "updated_at" {
		t.Fatalf("IncrementField = %q, want %q", f.IncrementField, "updated_at")
	}
	if f.Layer != "silver" {
		t.Fatalf("Layer = %q, want %q", f.Layer, "silver")
	}
	if f.Frequency != string(domain.FrequencyStreaming) {
		t.Fatalf("Frequency = %q, want %q", f.Frequency, domain.FrequencyStreaming)
	}
	if f.Mode != "overwrite" {
		t.Fatalf("Mode = %q, want %q", f.Mode, "overwrite")
	}
	if f.BasePath != "abfss://bucket@account.dfs.core.windows.net/root" {
		t.Fatalf("BasePath = %q", f.BasePath)
	}
}

func TestExtractEmptyText(t *testing.T) {
	t.Parallel()
	if f := Extract(""); f != (Fields{}) {
		t.Fatalf("Extract(\"\") = %+v, want zero", f)
	}
}
