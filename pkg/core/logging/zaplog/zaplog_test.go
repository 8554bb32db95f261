/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package zaplog

import (
	"testing"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, enc := range []string{"json", "console", ""} {
		p, err := New(enc)
		require.NoError(t, err, enc)
		assert.NotNil(t, p.GetLogger("fabapi/test"))
	}

	_, err := New("xml")
	assert.Error(t, err)
}

func TestModuleLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewWithCore(core)

	module := "fabapi/zaplogtest"
	logging.SetLevel(module, logging.INFO)
	l := p.GetLogger(module)

	l.Debugf("hidden %d", 1)
	l.Infof("visible %d", 2)
	l.Warnln("warn", "line")
	l.Error("error")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "visible 2", entries[0].Message)
	assert.Equal(t, module, entries[0].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "warn line", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	logging.SetLevel(module, logging.DEBUG)
	l.Debug("now visible")
	assert.Equal(t, 1, logs.FilterMessage("now visible").Len())

	logging.SetLevel(module, logging.ERROR)
	l.Info("suppressed")
	l.Print("always printed")
	assert.Equal(t, 0, logs.FilterMessage("suppressed").Len())
	assert.Equal(t, 1, logs.FilterMessage("always printed").Len())
}

func TestApplyLevels(t *testing.T) {
	err := ApplyLevels(config.LoggingConfig{Level: "warning", Modules: map[string]string{"fabapi/applytest": "debug"}})
	require.NoError(t, err)
	assert.Equal(t, logging.DEBUG, logging.GetLevel("fabapi/applytest"))
	assert.Equal(t, logging.WARNING, logging.GetLevel("fabapi/unconfigured"))

	assert.Error(t, ApplyLevels(config.LoggingConfig{Level: "loud"}))
	assert.Error(t, ApplyLevels(config.LoggingConfig{Level: "info", Modules: map[string]string{"x": "loud"}}))

	require.NoError(t, ApplyLevels(config.LoggingConfig{Level: "info"}))
}
