// service-token prints a machine-to-machine JWT for the internal endpoints
// (e.g. the Cloud Scheduler sync trigger). The secret comes from API_SECRET.
//
// Usage:
//
//	API_SECRET=... go run ./cmd/service-token -role scheduler
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Pixelcare-Consulting/omega-v2-sub004/utils"
)

func main() {
	role := flag.String("role", "scheduler", "subject recorded on runs triggered with this token")
	id := flag.Int("id", 0, "numeric principal id")
	flag.Parse()

	token, err := utils.JwtGenerate(*id, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
