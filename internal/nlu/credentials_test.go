package nlu

import "testing"

func TestExtractCredentials(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		text     string
		user     string
		password string
	}{
		{name: "zh_fullwidth_colon", text: "用户名：alice 密码：secret", user: "alice", password: "secret"},
		{name: "en_labels", text: "username: etl_user password: p4ss", user: "etl_user", password: "p4ss"},
		{name: "bare_keywords", text: "user etl pwd hunter2", user: "etl", password: "hunter2"},
		{name: "zh_alt_labels", text: "账号=svc 口令=abc123", user: "svc", password: "abc123"},
		{name: "stops_at_punctuation", text: "用户名：alice，密码：secret。完", user: "alice", password: "secret"},
		{name: "user_only", text: "username is bob", user: "bob", password: ""},
		{name: "absent", text: "从 postgres 抽取数据", user: "", password: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			creds := ExtractCredentials(tc.text)
			if creds.User != tc.user {
				t.Fatalf("User = %q, want %q", creds.User, tc.user)
			}
			if creds.Password != tc.password {
				t.Fatalf("Password = %q, want %q", creds.Password, tc.password)
			}
		})
	}
}

func TestCredentialsEmpty(t *testing.T) {
	t.Parallel()
	if !(Credentials{}).Empty() {
		t.Fatal("zero Credentials should be Empty")
	}
	if (Credentials{User: "a"}).Empty() {
		t.Fatal("Credentials with user should not be Empty")
	}
}
