package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/emlapp/pkg/container"
	"github.com/aretw0/emlapp/pkg/core"
	"github.com/aretw0/emlapp/pkg/eml"
)

type partInfo struct {
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"content_type" yaml:"content_type"`
	Encoding    string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	ContentID   string `json:"content_id,omitempty" yaml:"content_id,omitempty"`
	Size        int    `json:"size" yaml:"size"`
	Fallback    bool   `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

type infoReport struct {
	Source       string           `json:"source" yaml:"source"`
	Size         int64            `json:"size" yaml:"size"`
	SHA256       string           `json:"sha256" yaml:"sha256"`
	App          core.AppMetadata `json:"app" yaml:"app"`
	Preamble     eml.PreambleKind `json:"preamble" yaml:"preamble"`
	Shell        *eml.ShellCheck  `json:"shell,omitempty" yaml:"shell,omitempty"`
	Boundary     string           `json:"boundary,omitempty" yaml:"boundary,omitempty"`
	Parts        []partInfo       `json:"parts" yaml:"parts"`
	Warnings     []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Dockerfile   bool             `json:"dockerfile" yaml:"dockerfile"`
	DockerStatus string           `json:"docker,omitempty" yaml:"docker,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info [package]",
	Short: "Describe a package without extracting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Inspect never touches the sink.
		svc := core.NewService(nil, core.Config{Logger: logger, Strict: conf.GetBool("strict")})
		pkg, err := svc.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		msg := pkg.Message
		report := infoReport{
			Source:   pkg.Source,
			Size:     pkg.Size,
			SHA256:   pkg.SHA256,
			App:      pkg.App,
			Preamble: msg.PreambleKind,
			Boundary: msg.Boundary,
			Warnings: msg.Warnings,
		}
		if msg.PreambleKind == eml.PreambleShell {
			check := eml.CheckShell(msg.Preamble)
			report.Shell = &check
		}
		for _, p := range msg.Parts {
			report.Parts = append(report.Parts, partInfo{
				Filename:    p.Filename,
				ContentType: p.ContentType,
				Encoding:    p.Encoding,
				ContentID:   p.ContentID,
				Size:        p.Size(),
				Fallback:    p.Fallback,
			})
			if strings.EqualFold(p.Filename, "Dockerfile") {
				report.Dockerfile = true
			}
		}
		if report.Dockerfile {
			docker := container.NewDocker(container.WithBinary(conf.GetString("docker")))
			report.DockerStatus = "unavailable"
			if v, err := docker.Version(cmd.Context()); err == nil {
				report.DockerStatus = v
			}
		}

		switch {
		case conf.GetBool("json"):
			return writeJSON(cmd.OutOrStdout(), report)
		case conf.GetBool("yaml"):
			return writeYAML(cmd.OutOrStdout(), report)
		}
		return printInfo(cmd, report)
	},
}

func printInfo(cmd *cobra.Command, r infoReport) error {
	out := cmd.OutOrStdout()
	name := r.App.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(out, "App:      %s", name)
	if r.App.Version != "" {
		fmt.Fprintf(out, " %s", r.App.Version)
	}
	fmt.Fprintln(out)
	if r.App.Description != "" {
		fmt.Fprintf(out, "          %s\n", r.App.Description)
	}
	fmt.Fprintf(out, "Source:   %s (%d bytes)\n", r.Source, r.Size)
	fmt.Fprintf(out, "SHA256:   %s\n", r.SHA256)
	fmt.Fprintf(out, "Preamble: %s", r.Preamble)
	if r.Shell != nil {
		if r.Shell.Error != "" {
			fmt.Fprintf(out, " (parse error: %s)", r.Shell.Error)
		} else {
			fmt.Fprintf(out, " (%d statements)", r.Shell.Statements)
		}
	}
	fmt.Fprintln(out)
	if r.Dockerfile {
		fmt.Fprintf(out, "Docker:   Dockerfile present, docker %s\n", r.DockerStatus)
	}

	fmt.Fprintf(out, "Parts:    %d\n", len(r.Parts))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range r.Parts {
		cid := ""
		if p.ContentID != "" {
			cid = "<" + p.ContentID + ">"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\n", p.Filename, p.ContentType, p.Encoding, p.Size, cid)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("yaml", false, "Output as YAML")
	infoCmd.MarkFlagsMutuallyExclusive("json", "yaml")
}
