package nlu

import (
	"strings"
	"testing"
)

func TestMissingFieldsAllAbsent(t *testing.T) {
	t.Parallel()
	missing := MissingFields(Draft{}, "把数据搬一下")
	want := []string{
		labelSourceType,
		labelSourceHost,
		labelSourceTable,
		labelUser,
		labelPassword,
		labelSinkTable,
	}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i := range want {
		if missing[i] != want[i] {
			t.Fatalf("missing[%d] = %q, want %q", i, missing[i], want[i])
		}
	}
}

func TestMissingFieldsOnlyPassword(t *testing.T) {
	t.Parallel()
	text := "从 postgres 地址为db.example.com 数据库名称为sales 表名为vwtable1 用户名：alice 抽取数据，写入表 test.out1"
	d := Draft{}
	d.Source.Type = "postgres"
	d.Source.Table = "vwtable1"
	d.Sink.Database = "test"
	d.Sink.Table = "out1"

	missing := MissingFields(d, text)
	if len(missing) != 1 || missing[0] != labelPassword {
		t.Fatalf("missing = %v, want exactly [%q]", missing, labelPassword)
	}
}

func TestMissingFieldsHostSatisfiedByJDBCURL(t *testing.T) {
	t.Parallel()
	d := Draft{}
	d.Source.Type = "postgres"
	d.Source.JDBCURL = "jdbc:postgresql://h:5432/db"
	d.Source.Table = "public.orders"
	d.Source.Options = map[string]string{"user": "u", "password": "p"}
	d.Sink.Database = "test"
	d.Sink.Table = "out1"

	if missing := MissingFields(d, "no host mentioned here"); len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
}

func TestMissingFieldsBareSinkTableNeedsSchema(t *testing.T) {
	t.Parallel()
	d := Draft{}
	d.Source.Type = "postgres"
	d.Source.JDBCURL = "jdbc:postgresql://h:5432/db"
	d.Source.Table = "public.orders"
	d.Source.Options = map[string]string{"user": "u", "password": "p"}
	d.Sink.Table = "out1"

	missing := MissingFields(d, "")
	if len(missing) != 1 || missing[0] != labelSinkSchema {
		t.Fatalf("missing = %v, want exactly [%q]", missing, labelSinkSchema)
	}
}

func TestMissingFieldsErrorShape(t *testing.T) {
	t.Parallel()
	err := &MissingFieldsError{Fields: []string{labelSourceHost, labelPassword}}
	msg := err.Error()
	if !strings.HasPrefix(msg, "❌ 缺少必要信息，请提供：\n") {
		t.Fatalf("message header wrong: %q", msg)
	}
	if !strings.Contains(msg, "  • "+labelSourceHost+"\n  • "+labelPassword) {
		t.Fatalf("message bullets wrong: %q", msg)
	}
	if !strings.Contains(msg, "💡 示例：") {
		t.Fatalf("validator message should end with the example footer: %q", msg)
	}

	fromModel := &MissingFieldsError{Fields: []string{"hostname"}, FromModel: true}
	if !strings.HasSuffix(fromModel.Error(), "请重新输入包含以上信息的完整描述。") {
		t.Fatalf("model-reported message should end with the retry footer: %q", fromModel.Error())
	}
	if strings.Contains(fromModel.Error(), "💡") {
		t.Fatalf("model-reported message should not carry the example footer: %q", fromModel.Error())
	}
}
