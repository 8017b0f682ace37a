package cmd

import (
	"folio/internal/searchctl"
	"folio/internal/tui"
)

func runTUI() error {
	st, log, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	return tui.Run(tui.Config{
		Engine: st,
		Remote: searchctl.NewRemoteClient(flagRemoteURL, flagRemoteTok),
		Log:    log,
	})
}
