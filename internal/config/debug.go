package config

import "os"

func IsDebug() bool {
	return os.Getenv("NYXIE_DEBUG") == "1"
}
