package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/inventory/pkg/config"
)

func demoConfig(printMetrics bool) *config.Config {
	return &config.Config{
		LogLevel:       "error",
		Environment:    config.EnvTesting,
		InventoryName:  "demo",
		ServiceName:    "inventory",
		ServiceVersion: "test",
		PrintMetrics:   printMetrics,
	}
}

func TestRunDemo(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), demoConfig(false), &out))

	got := out.String()
	assert.Contains(t, got, "All items (4):")
	assert.Contains(t, got, "Items in stock: soccer ball, football, kitchen pot\n")
	assert.Contains(t, got, "Items in stock: football, kitchen pot\n")
	assert.Contains(t, got, "Items in sports: basket ball, soccer ball, football\n")
	assert.Contains(t, got, "After delete (3):")
	assert.NotContains(t, got, "# TYPE")

	first := strings.Index(got, "- quantity: 3")
	second := strings.Index(got, "- quantity: 10")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Contains(t, got, "- sku: KIPCO\n- name: kitchen pot\n- category: cooking\n")
}

func TestRunDemo_PrintMetrics(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDemo(context.Background(), demoConfig(true), &out))

	assert.Contains(t, out.String(), "inventory_items_created")
	assert.Contains(t, out.String(), "inventory_items_rejected")
}

func TestSKUCommand(t *testing.T) {
	var out bytes.Buffer
	skuCmd.SetOut(&out)
	require.NoError(t, skuCmd.RunE(skuCmd, []string{"kitchen pot", "cooking"}))
	assert.Equal(t, "KIPCO\n", out.String())
}
