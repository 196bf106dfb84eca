package db

import (
	"testing"

	"github.com/atlasworks/projectfeed/internal/config"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{
		DBUser:     "feed",
		DBPassword: "secret",
		DBName:     "projectfeed",
		DBPort:     "3306",
	}

	tests := []struct {
		name string
		host string
		icn  string
		want string
	}{
		{
			name: "host and port",
			host: "127.0.0.1",
			want: "feed:secret@tcp(127.0.0.1:3306)/projectfeed?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "cloud sql instance wins",
			host: "127.0.0.1",
			icn:  "proj:region:instance",
			want: "feed:secret@unix(/cloudsql/proj:region:instance)/projectfeed?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "socket path",
			host: "/var/run/mysqld/mysqld.sock",
			want: "feed:secret@unix(/var/run/mysqld/mysqld.sock)/projectfeed?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "pre-wrapped tcp address",
			host: "tcp(db.internal:3307)",
			want: "feed:secret@tcp(db.internal:3307)/projectfeed?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "pre-wrapped unix address",
			host: "unix(/tmp/mysql.sock)",
			want: "feed:secret@unix(/tmp/mysql.sock)/projectfeed?charset=utf8mb4&parseTime=True&loc=Local",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.icn
			if got := BuildDSN(&cfg); got != tt.want {
				t.Fatalf("dsn=%q want %q", got, tt.want)
			}
		})
	}
}
