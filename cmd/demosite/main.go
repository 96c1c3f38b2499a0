// Command demosite hosts sample portfolio pages for trying out the grader.
// Usage: go run ./cmd/demosite [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/foliograde/internal/demosite"
)

func main() {
	cfg := demosite.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   FolioGrade Demo Portfolios")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Sample pages for exercising the grader:")
	fmt.Println("  /complete - polished portfolio, near-perfect score")
	fmt.Println("  /minimal  - bare page missing most sections")
	fmt.Println("  /spa      - unrendered SPA shell (low-confidence path)")
	fmt.Println()
	fmt.Println("Note: the grader refuses localhost targets; point it at this")
	fmt.Println("server through a tunnel or public hostname.")
	fmt.Println()

	site := demosite.NewDemoSite(cfg)
	if err := site.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
