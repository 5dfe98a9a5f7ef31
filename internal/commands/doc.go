package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/books/internal/apperrors"
	"github.com/cleared-dev/books/internal/model"
)

var schemas = []model.Schema{
	model.SchemaSalesInvoice,
	model.SchemaPurchaseInvoice,
	model.SchemaJournalEntry,
	model.SchemaPayment,
}

func parseSchema(s string) (model.Schema, error) {
	for _, schema := range schemas {
		if string(schema) == s {
			return schema, nil
		}
	}
	return "", apperrors.Validation("schema", "unknown document type %q, want one of %v", s, schemas)
}

// docHeader is read first to decide which document a YAML file holds.
type docHeader struct {
	Kind   model.Schema `yaml:"kind"`
	Schema model.Schema `yaml:"schema"`
}

// decodeDocument parses a document file. The kind key names the document
// type; invoices may use schema instead.
func decodeDocument(data []byte) (any, error) {
	var h docHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	kind := h.Kind
	if kind == "" {
		kind = h.Schema
	}

	var doc any
	switch {
	case kind.IsInvoice():
		inv := &model.Invoice{}
		if err := yaml.Unmarshal(data, inv); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", kind, err)
		}
		inv.Schema = kind
		doc = inv
	case kind == model.SchemaJournalEntry:
		je := &model.JournalEntry{}
		if err := yaml.Unmarshal(data, je); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", kind, err)
		}
		doc = je
	case kind == model.SchemaPayment:
		pay := &model.Payment{}
		if err := yaml.Unmarshal(data, pay); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", kind, err)
		}
		doc = pay
	default:
		return nil, apperrors.Validation("kind", "unknown document kind %q", kind)
	}
	return doc, nil
}

func identify(doc any) (model.Schema, string) {
	switch d := doc.(type) {
	case *model.Invoice:
		return d.Schema, d.Name
	case *model.JournalEntry:
		return model.SchemaJournalEntry, d.Name
	case *model.Payment:
		return model.SchemaPayment, d.Name
	}
	return "", ""
}

func newDocCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Save, submit and cancel invoices, payments and journal entries",
	}
	cmd.AddCommand(newDocSaveCommand(g))
	cmd.AddCommand(newDocTransitionCommand(g, "submit", "Post a draft to the ledger"))
	cmd.AddCommand(newDocTransitionCommand(g, "cancel", "Reverse a submitted document and the payments made against it"))
	cmd.AddCommand(newDocShowCommand(g))
	return cmd
}

func newDocSaveCommand(g *globalFlags) *cobra.Command {
	var submit bool

	cmd := &cobra.Command{
		Use:   "save <file.yaml>...",
		Short: "Save documents from YAML files as drafts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				doc, err := decodeDocument(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := a.lifecycle.Save(ctx, doc); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				schema, name := identify(doc)
				if !submit {
					printSuccess(out, "Saved %s %s", schema, name)
					continue
				}
				if err := a.lifecycle.Submit(ctx, schema, name); err != nil {
					return err
				}
				printSuccess(out, "Submitted %s %s", schema, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&submit, "submit", false, "submit each document after saving it")
	return cmd
}

func newDocTransitionCommand(g *globalFlags, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <type> <name>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := parseSchema(args[0])
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if action == "submit" {
				err = a.lifecycle.Submit(cmd.Context(), schema, args[1])
			} else {
				err = a.lifecycle.Cancel(cmd.Context(), schema, args[1])
			}
			if err != nil {
				return err
			}
			verb := "Submitted"
			if action == "cancel" {
				verb = "Cancelled"
			}
			printSuccess(cmd.OutOrStdout(), "%s %s %s", verb, schema, args[1])
			return nil
		},
	}
}

func newDocShowCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <name>",
		Short: "Print a stored document as YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := parseSchema(args[0])
			if err != nil {
				return err
			}
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			var doc any
			switch {
			case schema.IsInvoice():
				doc, err = a.store.GetInvoice(ctx, schema, args[1])
			case schema == model.SchemaJournalEntry:
				doc, err = a.store.GetJournalEntry(ctx, args[1])
			default:
				doc, err = a.store.GetPayment(ctx, args[1])
			}
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encoding %s %s: %w", schema, args[1], err)
			}
			return enc.Close()
		},
	}
}
