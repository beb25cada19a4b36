// s3meta is an operator diagnostic tool: it resolves an object-store URI
// through the configured credential profiles and runs read-only metadata
// queries against it.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tinybirdco/s3gate/pkg/configutils"
	"github.com/tinybirdco/s3gate/pkg/logging"
	"github.com/tinybirdco/s3gate/pkg/s3"
)

var (
	configFile   string
	profile      string
	region       string
	maxRedirects int
	verbose      bool
	allowedHosts []string
)

func main() {
	root := &cobra.Command{
		Use:          "s3meta",
		Short:        "Read-only metadata queries against an object store",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file with s3 credential profiles")
	root.PersistentFlags().StringVar(&profile, "profile", "", "named credential profile overlaid on the default")
	root.PersistentFlags().StringVar(&region, "region", "", "region override")
	root.PersistentFlags().IntVar(&maxRedirects, "max-redirects", 10, "redirect budget per request")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "log every object store request")
	root.PersistentFlags().StringSliceVar(&allowedHosts, "allowed-hosts", nil, "allowed endpoint hosts (empty allows all)")

	root.AddCommand(statCmd(), existsCmd(), metadataCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func statCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <uri>",
		Short: "Print the object's size and last-modification time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), args[0], func(ctx context.Context, client *s3.Client, uri *s3.URI) error {
				info, err := s3.GetObjectInfo(ctx, client, uri.Bucket, uri.Key, uriOptions(uri)...)
				if err != nil {
					return err
				}
				fmt.Printf("size: %d\nlast_modified: %s\n", info.Size, info.LastModified)
				return nil
			})
		},
	}
}

func existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <uri>",
		Short: "Report whether the object exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), args[0], func(ctx context.Context, client *s3.Client, uri *s3.URI) error {
				exists, err := s3.ObjectExists(ctx, client, uri.Bucket, uri.Key, uriOptions(uri)...)
				if err != nil {
					return err
				}
				fmt.Println(exists)
				return nil
			})
		},
	}
}

func metadataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <uri>",
		Short: "Print the object's custom metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), args[0], func(ctx context.Context, client *s3.Client, uri *s3.URI) error {
				metadata, err := s3.GetObjectMetadata(ctx, client, uri.Bucket, uri.Key, uriOptions(uri)...)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(metadata))
				for k := range metadata {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Printf("%s: %s\n", k, metadata[k])
				}
				return nil
			})
		},
	}
}

func uriOptions(uri *s3.URI) []s3.ObjectOption {
	var opts []s3.ObjectOption
	if uri.VersionID != "" {
		opts = append(opts, s3.WithVersionID(uri.VersionID))
	}
	return opts
}

func withClient(ctx context.Context, rawURI string, run func(context.Context, *s3.Client, *s3.URI) error) error {
	v := viper.New()
	v.AutomaticEnv()
	if configFile != "" {
		if err := configutils.ResolveAndMergeFile(v, configFile); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}

	logConfig, err := logging.NewConfig(logging.WithViper(v))
	if err != nil {
		return err
	}
	zapLogger, err := logging.NewLogger(logConfig)
	if err != nil {
		return err
	}
	logger := logging.ForZap(zapLogger)

	settings := s3.LoadAuthSettings(v, "s3.default")
	if profile != "" {
		settings.UpdateFrom(s3.LoadAuthSettings(v, "s3.profiles."+profile))
	}
	if region != "" {
		settings.Region = region
	}

	uri, err := s3.ParseURI(rawURI)
	if err != nil {
		return err
	}

	moduleSettings, err := s3.LoadSettings(v)
	if err != nil {
		return err
	}
	filter := moduleSettings.HostFilter()
	if len(allowedHosts) > 0 {
		filter = s3.NewHostAllowList(allowedHosts...)
	}

	factory := s3.NewClientFactory(logger)
	factory.SetRequestsLogging(moduleSettings.RequestsLogging)
	cfg := factory.NewClientConfig(settings.Region, filter, maxRedirects, verbose, false, nil, nil)
	if uri.Endpoint != "" {
		scheme := "https"
		if parsed, err := url.Parse(uri.Raw); err == nil && parsed.Scheme != "" {
			scheme = parsed.Scheme
		}
		cfg.Endpoint = scheme + "://" + uri.Endpoint
	}

	useEnvCreds := settings.UseEnvironmentCredentials != nil && *settings.UseEnvironmentCredentials
	useInsecureIMDS := settings.UseInsecureIMDSRequest != nil && *settings.UseInsecureIMDSRequest

	client, err := factory.NewClient(ctx, cfg, uri.IsVirtualHostedStyle,
		settings.AccessKeyID, settings.SecretAccessKey, settings.SSECustomerKeyBase64,
		settings.Headers, useEnvCreds, useInsecureIMDS)
	if err != nil {
		return err
	}

	return run(ctx, client, uri)
}
