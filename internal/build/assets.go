package build

import (
	"bytes"
	"path/filepath"

	"git.home.luguber.info/inful/marksite/internal/foundation/errors"
	"git.home.luguber.info/inful/marksite/internal/highlight"
	"git.home.luguber.info/inful/marksite/internal/logfields"
	"git.home.luguber.info/inful/marksite/internal/output"
)

const publicDirName = "public"

// themeCSSFiles are generated below <out>/public.
var themeCSSFiles = map[string]string{
	"dark":  "css/syntax-theme-dark.css",
	"light": "css/syntax-theme-light.css",
}

// copyAssets mirrors the public directory into dst/public, regenerates the
// syntax stylesheets and copies the attachment directory. When attachments
// is non-nil, attachment files no document references are removed again.
func (o *Orchestrator) copyAssets(dst string, attachments map[string]bool) error {
	if err := output.ReplaceDir(o.layout.PublicDir, filepath.Join(dst, publicDirName)); err != nil {
		return err
	}
	if err := o.writeThemeCSS(dst); err != nil {
		return err
	}

	dir := o.cfg.AttachmentDirectory
	if o.layout.AttachmentsDir == "" || dir == "" {
		return nil
	}
	target := output.Join(dst, dir)
	if err := output.CopyDir(o.layout.AttachmentsDir, target); err != nil {
		return err
	}
	if attachments == nil {
		return nil
	}
	keep := make(map[string]bool, len(attachments)+len(o.written))
	for p := range attachments {
		keep[p] = true
	}
	for p := range o.written {
		keep[p] = true
	}
	removed, err := output.PruneUnlisted(dst, target, keep)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		o.logger.Debug("Removed unreferenced attachments", logfields.Count(len(removed)))
	}
	return nil
}

func (o *Orchestrator) writeThemeCSS(dst string) error {
	styles := map[string]string{"dark": o.cfg.Syntax.Dark, "light": o.cfg.Syntax.Light}
	for variant, rel := range themeCSSFiles {
		var buf bytes.Buffer
		if err := highlight.WriteThemeCSS(&buf, styles[variant]); err != nil {
			return errors.WrapError(err, errors.CategoryHighlight, "failed to generate syntax stylesheet").
				Fatal().
				WithContext("style", styles[variant]).
				Build()
		}
		if err := output.WriteFile(filepath.Join(dst, publicDirName, filepath.FromSlash(rel)), buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
