package app_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/app"
	"go.trai.ch/recon/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestComponents_Close(t *testing.T) {
	require.NoError(t, (&app.Components{}).Close())

	ctrl := gomock.NewController(t)
	telemetry := mocks.NewMockTelemetry(ctrl)
	telemetry.EXPECT().Close().Return(errors.New("flush failed"))

	err := (&app.Components{Telemetry: telemetry}).Close()
	require.EqualError(t, err, "flush failed")
}
