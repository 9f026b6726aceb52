package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/chazu/lumberyard/pkg/contact"
	"github.com/chazu/lumberyard/pkg/engine"
	"github.com/chazu/lumberyard/pkg/graph"
	"github.com/chazu/lumberyard/pkg/kernel/sdfx"
	"github.com/chazu/lumberyard/pkg/lumber"
	"github.com/chazu/lumberyard/pkg/project"
	"github.com/chazu/lumberyard/pkg/tessellate"
)

// runScript evaluates the script at path and saves the result to out.
func runScript(path, out, name string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, 0, len(evalErrs))
		for _, e := range evalErrs {
			errs = append(errs, fmt.Errorf("%s: %w", path, e))
		}
		return errors.Join(errs...)
	}

	p := project.FromStore(s, name)
	if res := graph.ValidateAll(p.Pieces(), 0); !res.OK() {
		return fmt.Errorf("%s: %d validation errors, first: %w", path, len(res.Errors), res.Errors[0])
	}
	if err := project.Save(out, p); err != nil {
		return err
	}
	log.Info().Str("script", path).Str("project", out).Int("pieces", s.Len()).Msg("saved project")
	return nil
}

type inspectOptions struct {
	faces     bool
	threshold float64
	workArea  float64
}

// inspect prints a human-readable report of the project at path.
func inspect(w io.Writer, path string, opts inspectOptions) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	pieces := p.Pieces()

	fmt.Fprintf(w, "%s (version %s, %d pieces)\n\n", p.Metadata.Name, p.Version, len(pieces))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tLENGTH\tSTART\tEND\tCONNECTIONS")
	for _, l := range pieces {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%d\n",
			l.ID, l.Type, l.Length, l.Position, l.End(), len(l.Connections))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.faces {
		for _, l := range pieces {
			if !l.Type.Valid() {
				continue
			}
			fmt.Fprintf(w, "\nfaces of %s\n", l.ID)
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tTYPE\tCENTER\tNORMAL")
			for i, f := range lumber.Faces(l) {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, f.FaceType, f.Center, f.Normal)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
		}
	}

	res := graph.ValidateAll(pieces, opts.workArea)
	fmt.Fprintf(w, "\nvalidation: %d errors, %d warnings\n", len(res.Errors), len(res.Warnings))
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	for _, e := range res.Warnings {
		fmt.Fprintf(w, "  %s\n", e)
	}

	contacts := contact.Detect(pieces, opts.threshold)
	fmt.Fprintf(w, "\ncontacts: %d\n", len(contacts))
	for _, c := range contacts {
		fmt.Fprintf(w, "  %s %s face %d <-> %s face %d at %s\n",
			c.ContactType, c.A, c.FaceA, c.B, c.FaceB, c.ContactPoint)
	}

	groups := graph.Build(pieces).Components()
	fmt.Fprintf(w, "\nconnected groups: %d\n", len(groups))
	for i, g := range groups {
		fmt.Fprintf(w, "  %d: %v\n", i+1, g)
	}
	return nil
}

// writeMeshes tessellates the project at path and writes the meshes as a
// JSON array.
func writeMeshes(w io.Writer, path string, cells int) error {
	p, err := project.Load(path)
	if err != nil {
		return err
	}
	meshes, err := tessellate.Tessellate(p.Pieces(), sdfx.New(sdfx.WithCells(cells)))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meshes)
}

// withOutput runs fn against the named file, or standard output when path
// is empty.
func withOutput(path string, fn func(io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
