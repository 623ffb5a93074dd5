package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/hitl/core/protocol"
	"github.com/tailored-agentic-units/hitl/tools"
)

func builtinTools() *tools.Registry {
	reg := tools.NewRegistry()

	must(reg.Register(protocol.Tool{
		Name:        "internet_search",
		Description: "Search the internet for information on a given topic.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for.",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results.",
				},
			},
			"required": []string{"query"},
		},
	}, handleInternetSearch))

	must(reg.Register(protocol.Tool{
		Name:        "get_weather",
		Description: "Get the weather in a given city.",
		Parameters:  cityParameters(),
	}, handleWeather))

	must(reg.Register(protocol.Tool{
		Name:        "get_current_time",
		Description: "Get the current time in a given city.",
		Parameters:  cityParameters(),
	}, handleCurrentTime))

	must(reg.Register(protocol.Tool{
		Name:        "get_news",
		Description: "Get the news on a given topic.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"topic": map[string]any{"type": "string"},
			},
		},
	}, handleNews))

	return reg
}

func cityParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
	}
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("failed to register tool: %v", err))
	}
}

type toolArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	City       string `json:"city"`
	Topic      string `json:"topic"`
}

func decode(raw json.RawMessage) (toolArgs, error) {
	var args toolArgs
	if len(raw) == 0 {
		return args, nil
	}
	err := json.Unmarshal(raw, &args)
	return args, err
}

func handleInternetSearch(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := decode(raw)
	if err != nil {
		return tools.Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
	}
	if args.Query == "" {
		return tools.Result{Content: "query is required", IsError: true}, nil
	}
	return tools.Result{Content: fmt.Sprintf("offline search for %q returned no live results", args.Query)}, nil
}

func handleWeather(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := decode(raw)
	if err != nil {
		return tools.Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
	}
	if args.City == "" {
		args.City = "Atlanta"
	}
	return tools.Result{Content: fmt.Sprintf("The weather in %s is sunny.", args.City)}, nil
}

func handleCurrentTime(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := decode(raw)
	if err != nil {
		return tools.Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
	}
	if args.City == "" {
		args.City = "New York"
	}
	return tools.Result{Content: fmt.Sprintf("The current time in %s is %s", args.City, time.Now().Format(time.TimeOnly))}, nil
}

func handleNews(_ context.Context, raw json.RawMessage) (tools.Result, error) {
	args, err := decode(raw)
	if err != nil {
		return tools.Result{Content: "invalid arguments: " + err.Error(), IsError: true}, nil
	}
	if args.Topic == "" {
		args.Topic = "technology"
	}
	return tools.Result{Content: fmt.Sprintf("The news on %s is no news...Sorry", args.Topic)}, nil
}
