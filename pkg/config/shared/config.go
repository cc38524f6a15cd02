package shared

import (
	"github.com/kingball/kingball/pkg/logger"
	"github.com/spf13/pflag"
)

type Server struct {
	Address string `default:":9000"`
	Https   bool
	Tls     struct {
		Domain    string
		HttpsKey  string
		HttpsCert string
	}
}

// Log is a rotated log file, disabled when Path is empty.
type Log struct {
	Path       string
	MaxSizeMb  int `default:"10"`
	MaxBackups int `default:"3"`
	MaxAgeDays int `default:"7"`
	NoColor    bool
}

func (s *Server) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&s.Address, "addr", s.Address, "HTTP server address (host:port)")
	fs.BoolVar(&s.Https, "https", s.Https, "Use HTTPS")
	fs.StringVar(&s.Tls.HttpsKey, "httpsKey", s.Tls.HttpsKey, "HTTPS key")
	fs.StringVar(&s.Tls.HttpsCert, "httpsCert", s.Tls.HttpsCert, "HTTPS certificate chain")
	fs.StringVar(&s.Tls.Domain, "domain", s.Tls.Domain, "Domain name for the autocert")
}

func (l *Log) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&l.Path, "log", l.Path, "Also write logs into this rotated file")
}

func (l Log) File() logger.File {
	return logger.File{Path: l.Path, MaxSizeMb: l.MaxSizeMb, MaxBackups: l.MaxBackups, MaxAgeDays: l.MaxAgeDays}
}
