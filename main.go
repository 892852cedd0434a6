package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mniksch/google-as-template/internal/app"
	"github.com/mniksch/google-as-template/internal/auth"
	"github.com/mniksch/google-as-template/internal/drive"
	"github.com/mniksch/google-as-template/internal/script"
	"github.com/mniksch/google-as-template/internal/sheets"
)

func main() {
	app.SetupEnvironment()

	// Parse command line flags
	runFn := flag.String("run", "", "Apps Script function to run")
	params := flag.String("params", "", "Comma-separated string parameters for -run")
	devMode := flag.Bool("dev", true, "Run latest saved script code instead of last deployment")
	moveID := flag.String("move", "", "Drive file id to move (requires -folder)")
	folderID := flag.String("folder", "", "Destination Drive folder id for -move")
	csvPath := flag.String("push-csv", "", "CSV file to write to a sheet (requires -sheet and -tab)")
	spreadsheetID := flag.String("sheet", "", "Spreadsheet id for -push-csv")
	tabName := flag.String("tab", "", "Sheet (tab) name for -push-csv")
	shareID := flag.String("share", "", "Drive file id to open up to anyone with the link")
	shareRole := flag.String("role", "writer", "Permission role for -share (writer or reader)")
	setScriptID := flag.String("set-script-id", "", "Store a new scriptId in the local settings file")
	setAPIID := flag.String("set-api-id", "", "Store a new API_ID in the local settings file")
	flag.Parse()

	// Load configuration
	config, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	settings, err := script.LoadSettings(config.LocalSettings)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load script settings")
	}

	if *setScriptID != "" || *setAPIID != "" {
		if *setScriptID != "" {
			settings.SetScriptID(*setScriptID)
		}
		if *setAPIID != "" {
			settings.SetAPIID(*setAPIID)
		}
		if err := settings.Store(); err != nil {
			log.Fatal().Err(err).Msg("Failed to store script settings")
		}
		log.Info().Str("settings", settings.String()).Msg("Updated local settings")
		return
	}

	// Acquire credentials; this may block on browser consent
	cache, err := auth.NewCache(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to acquire credentials")
	}

	log.Info().Str("project", cache.Project).Msg("Authenticated")

	factory := auth.NewFactory(cache, config.ServiceVersions)

	switch {
	case *runFn != "":
		scriptService, err := factory.Script(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get script service")
		}

		var parameters []interface{}
		if *params != "" {
			for _, p := range strings.Split(*params, ",") {
				parameters = append(parameters, p)
			}
		}

		runner := script.NewRunner(scriptService, settings)
		result, err := runner.Call(ctx, *runFn, parameters, *devMode)
		if err != nil {
			log.Fatal().Err(err).Msg("Apps Script call failed")
		}
		log.Info().Interface("result", result).Msg("Apps Script call complete")

	case *csvPath != "":
		if *spreadsheetID == "" || *tabName == "" {
			log.Fatal().Msg("-push-csv requires -sheet and -tab")
		}
		grid, err := readCSVGrid(*csvPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *csvPath).Msg("Failed to read CSV file")
		}
		sheetsService, err := factory.Sheets(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get sheets service")
		}
		writer := sheets.NewWriter(sheets.NewClientFromService(sheetsService))
		if err := writer.WriteGrid(ctx, *spreadsheetID, *tabName, grid, sheets.DefaultWriteOptions()); err != nil {
			log.Fatal().Err(err).Msg("Failed to write grid")
		}
		log.Info().Str("sheet", *spreadsheetID).Str("tab", *tabName).Msg("Wrote CSV to sheet")

	case *moveID != "":
		if *folderID == "" {
			log.Fatal().Msg("-move requires -folder")
		}
		driveService, err := factory.Drive(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get drive service")
		}
		client := drive.NewClientFromService(driveService)
		if err := client.MoveFile(ctx, *moveID, *folderID); err != nil {
			log.Fatal().Err(err).Msg("Failed to move file")
		}
		log.Info().Str("file", *moveID).Str("folder", *folderID).Msg("Moved file")

	case *shareID != "":
		driveService, err := factory.Drive(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get drive service")
		}
		client := drive.NewClientFromService(driveService)
		if err := client.AddLinkPermissions(ctx, *shareID, *shareRole); err != nil {
			log.Fatal().Err(err).Msg("Failed to update permissions")
		}
		log.Info().Str("file", *shareID).Str("role", *shareRole).Msg("Opened up link sharing")

	default:
		log.Info().Msg("Nothing to do; see -h for available operations")
	}
}

// readCSVGrid loads a CSV file as a rectangular grid for the bulk writer
func readCSVGrid(path string) ([][]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	grid := make([][]interface{}, len(records))
	for i, record := range records {
		grid[i] = make([]interface{}, len(record))
		for j, field := range record {
			grid[i][j] = field
		}
	}
	return grid, nil
}
