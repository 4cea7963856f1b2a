package practice

import "github.com/lithammer/shortuuid/v4"

func newUID() string {
	return shortuuid.New()
}
