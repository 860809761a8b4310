// Command asyncapi-gen renders a configured AsyncAPI document to a file or
// stdout, producing the same bytes the HTTP endpoint serves. It ships with a
// small demo configuration; applications embed the provider directly for
// their own documents.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	asyncapi "github.com/goliatone/go-asyncapi"
	"github.com/goliatone/go-asyncapi/pkg/config"
	"github.com/goliatone/go-asyncapi/pkg/descriptor"
	"github.com/goliatone/go-asyncapi/pkg/serializer"
	"github.com/goliatone/go-asyncapi/pkg/spec"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.App{
		Name:  "asyncapi-gen",
		Usage: "render an AsyncAPI document at build time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "document",
				Usage: "document `NAME` to render (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "output format, json or yaml",
				Value: "json",
			},
			&cli.StringFlag{
				Name:  "spec-version",
				Usage: "AsyncAPI version, 2 or 3",
				Value: "3",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "output `FILE` (stdout if empty)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("generation failed")
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	store, err := demoStore()
	if err != nil {
		return err
	}

	name := c.String("document")
	if name == "" {
		names := store.Names()
		if len(names) == 1 {
			name = names[0]
		} else {
			prompt := &survey.Select{
				Message: "Which document?",
				Options: names,
			}
			if err := survey.AskOne(prompt, &name); err != nil {
				return err
			}
		}
	}

	format := serializer.FormatJSON
	if c.String("format") == "yaml" {
		format = serializer.FormatYAML
	}
	version := serializer.V3
	if c.String("spec-version") == "2" {
		version = serializer.V2
	}

	provider := asyncapi.NewProvider(store, asyncapi.WithVersion(version))
	data, err := provider.Generate(c.Context, name, format)
	if err != nil {
		return err
	}

	if output := c.String("output"); output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		log.Info().Str("document", name).Str("output", output).Msg("document written")
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}

// demo payloads mirroring a small notification service

type notificationCreated struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Subject   string    `json:"subject"`
	Body      *string   `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func demoStore() (*config.Store, error) {
	if err := descriptor.Register(descriptor.Type{
		Name: "NotificationService",
		Channels: []descriptor.Channel{{
			Name:        "notifications/{userId}",
			Description: "Per-user notification stream",
			Parameters: []descriptor.Parameter{{
				Name:        "userId",
				Description: "Recipient user id",
			}},
			Operations: []descriptor.Operation{{
				Member: "PublishCreated",
				Intent: descriptor.IntentSubscribe,
				Messages: []descriptor.Message{{
					Payload: notificationCreated{},
					Summary: "A notification was created",
				}},
			}},
		}},
	}); err != nil {
		return nil, err
	}

	opts, err := config.NewBuilder("demo").
		Title("Notification Service").
		Version("1.0.0").
		AddServer("mqtt-broker", spec.Server{Host: "mqtt.example.com", Protocol: "mqtt"}).
		Build()
	if err != nil {
		return nil, err
	}

	store := config.NewStore()
	if err := store.Add(opts); err != nil {
		return nil, err
	}
	return store, nil
}
