package app

import (
	"context"

	"emsdk/internal/shared"
)

// Inspect reports how one tool or SDK maps onto this host: where it
// installs, what it downloads and what activating it changes.
func (s Service) Inspect(ctx context.Context, name string) (InspectResult, error) {
	sess, err := s.open(ctx)
	if err != nil {
		return InspectResult{}, err
	}
	tool, err := s.find(sess, name)
	if err != nil {
		return InspectResult{}, err
	}
	result := InspectResult{
		Name:        tool.Name(),
		IsSDK:       tool.IsSDK(),
		Uses:        tool.Uses,
		FromSource:  sess.registry.NeedsCompilation(tool),
		InstallPath: sess.layout.ToNativePath(sess.layout.InstallationPath(tool)),
		DownloadURL: sess.layout.DownloadURL(tool),
		Paths:       sess.layout.ActivatedPaths(tool),
		Config:      sess.layout.ActivatedConfig(tool),
		Env:         sess.layout.ActivatedEnv(tool),
	}
	if err := sess.installer.CanBeInstalled(ctx, tool); err != nil {
		result.Unavailable = shared.ErrorMessage(err)
	}
	if result.Installed, err = sess.installer.IsInstalled(ctx, tool); err != nil {
		return InspectResult{}, err
	}
	if !result.Installed {
		return result, nil
	}
	record, err := s.Config.Load(sess.layout.ToNativePath(s.configPath(sess)))
	if err != nil {
		return InspectResult{}, err
	}
	if result.Active, err = newActiveChecker(sess, record).isActive(ctx, tool); err != nil {
		return InspectResult{}, err
	}
	if s.Receipts != nil && !tool.IsSDK() {
		receipt, ok, err := s.Receipts.ReadReceipt(result.InstallPath)
		if err != nil {
			return InspectResult{}, err
		}
		if ok {
			result.Receipt = &receipt
		}
	}
	return result, nil
}
