package cmd

import (
	"github.com/spf13/cobra"

	"inkblog/client"
	"inkblog/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the form pages",
	RunE:  runWeb,
}

func runWeb(cmd *cobra.Command, _ []string) error {
	cfg, log, err := load()
	if err != nil {
		return err
	}

	srv := web.New(client.New(cfg.APIBaseURL, cfg.APITimeout), log, cfg.JWTTTL)
	srv.SecureCookies = cfg.WebSecureCookies

	log.Info("web listening", "port", cfg.WebPort, "api", cfg.APIBaseURL)
	return serve(cmd.Context(), ":"+cfg.WebPort, srv.Router())
}
