package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"

	"labelmaster/internal"
	"labelmaster/internal/config"
	"labelmaster/internal/connectors"
	"labelmaster/internal/directory"
	"labelmaster/internal/listener"
	"labelmaster/internal/logger"
	"labelmaster/internal/pipeline"
	"labelmaster/internal/storage"
	"labelmaster/internal/util"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	must(err)
	defer log.Sync()

	db, err := storage.Open(cfg.DBPath, config.IssuerDirectoryKey)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	issuers, err := directory.Open(ctx, db)
	must(err)
	session := pipeline.NewSession(issuers, log)
	printOpts := pipeline.PrintOptions{WidthMM: cfg.LabelWidthMM, HeightMM: cfg.LabelHeightMM}

	cmd := os.Args[1]
	switch cmd {
	case "issuer:add":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		cnpj := fs.String("cnpj", "", "issuer CNPJ, punctuation allowed")
		name := fs.String("name", "", "display name")
		logoPath := fs.String("logo", "", "png, jpeg or gif logo file")
		_ = fs.Parse(os.Args[2:])

		issuer := internal.Issuer{TaxID: *cnpj, Name: *name}
		if strings.TrimSpace(*logoPath) != "" {
			blob, err := os.ReadFile(*logoPath)
			must(err)
			issuer.Logo, err = pipeline.EncodeLogo(blob)
			must(err)
		}
		added, err := issuers.Add(ctx, issuer)
		must(err)
		fmt.Printf("issuer added id=%s cnpj=%s name=%s\n", added.ID, util.FormatCNPJ(added.TaxID), added.Name)
	case "issuer:list":
		for _, issuer := range issuers.List() {
			logo := "no"
			if issuer.Logo != "" {
				logo = "yes"
			}
			fmt.Printf("%s\t%s\t%s\tlogo=%s\n", issuer.ID, util.FormatCNPJ(issuer.TaxID), issuer.Name, logo)
		}
	case "issuer:remove":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "issuer id")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*id) == "" {
			must(errors.New("--id is required"))
		}
		must(issuers.Remove(ctx, *id))
		fmt.Printf("issuer removed id=%s\n", *id)
	case "labels:run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output pdf path")
		xlsx := fs.String("xlsx", "", "optional label manifest xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" || fs.NArg() == 0 {
			must(errors.New("--out and at least one xml file are required"))
		}

		docs, err := pipeline.ReadDocuments(fs.Args(), cfg.MaxDocumentBytes)
		must(err)
		_, err = session.Upload(ctx, docs)
		must(err)
		labels := session.Labels()
		must(pipeline.RenderLabelsPDFFile(labels, printOpts, *out))
		if strings.TrimSpace(*xlsx) != "" {
			must(pipeline.ExportLabelsToXLSX(labels, *xlsx))
		}
		fmt.Printf("labels done invoices=%d labels=%d output=%s\n", session.Book.Len(), len(labels), *out)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := listener.MakeConnector(ctx, cfg, normalizeProvider(*provider))
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn, log)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d new=%d\n", *provider, result.Fetched, result.Stored, result.New)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		out := fs.String("out", "", "optional pdf path for the committed invoices")
		_ = fs.Parse(os.Args[2:])

		processor := pipeline.NewProcessingService(db, session, log)
		var results []pipeline.ProcessResult
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(ctx, normalizeProvider(*provider), *messageID)
			must(err)
			results = append(results, res)
		} else {
			results, err = processor.ProcessPending(ctx, *batch, normalizeProvider(*provider))
			must(err)
		}
		for _, res := range results {
			fmt.Printf("email id=%d status=%s invoices=%d\n", res.EmailID, res.Status, len(res.Invoices))
		}
		if strings.TrimSpace(*out) != "" {
			labels := session.Labels()
			if len(labels) == 0 {
				fmt.Println("no invoices committed, nothing to print")
				return
			}
			must(pipeline.RenderLabelsPDFFile(labels, printOpts, *out))
			fmt.Printf("labels printed labels=%d output=%s\n", len(labels), *out)
		}
	case "mail:listen":
		s := listener.NewService(db, cfg, session, log)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func usage() {
	fmt.Println("usage: labelmaster <command>")
	fmt.Println("commands:")
	fmt.Println("  issuer:add --cnpj=12.345.678/0001-99 --name=ACME [--logo=./logo.png]")
	fmt.Println("  issuer:list")
	fmt.Println("  issuer:remove --id=...")
	fmt.Println("  labels:run --out=./out/labels.pdf [--xlsx=./out/labels.xlsx] nfe1.xml nfe2.xml ...")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20] [--out=./out/labels.pdf]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
