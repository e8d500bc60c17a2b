package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/guestgate/guestgate/internal/app"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: guestgate [-config path] <command> [arguments]

commands:
  serve                      run the HTTP server
  migrate                    create or update the database schema
  admin <user> <password>    create or reset an admin account
  import <guests.csv>        import guests from CSV and render QR codes
  export [guests.csv]        export the guest table as CSV (default stdout)
  reset-entries              mark every guest as not entered
  qr generate                render QR codes for all guests
  qr bundle [qr_codes.zip]   zip all rendered QR codes
`)
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch args[0] {
	case "serve":
		err = app.RunServer(ctx, *configPath)
	case "migrate":
		err = app.Migrate(ctx, *configPath)
	case "admin":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		err = app.CreateAdmin(ctx, *configPath, args[1], args[2])
	case "import":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = app.ImportGuests(ctx, *configPath, args[1])
	case "export":
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		err = app.ExportGuests(ctx, *configPath, target)
	case "reset-entries":
		err = app.ResetEntries(ctx, *configPath)
	case "qr":
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		switch args[1] {
		case "generate":
			err = app.GenerateQRCodes(ctx, *configPath)
		case "bundle":
			target := ""
			if len(args) > 2 {
				target = args[2]
			}
			err = app.BundleQRCodes(ctx, *configPath, target)
		default:
			usage()
			os.Exit(2)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s: %v", args[0], err)
	}
}
