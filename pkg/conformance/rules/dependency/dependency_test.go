package dependency

import (
	"testing"

	"github.com/layerlint/layerlint/pkg/conformance"
	"github.com/layerlint/layerlint/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() *core.Policy {
	return &core.Policy{
		SourceDir:     "lib",
		CommonFeature: "common",
		MaxFileLines:  400,
		PartSuffix:    "_components",
		Layers: []core.LayerSpec{
			{Layer: core.LayerUIScreen, Folder: "screens", NameSuffix: "Screen",
				AllowedTargets: []core.Layer{core.LayerUIView, core.LayerUIComponent, core.LayerCubit, core.LayerCubitState}},
			{Layer: core.LayerUIComponent, Folder: "components",
				AllowedTargets: []core.Layer{core.LayerCubit, core.LayerCubitState}},
			{Layer: core.LayerCubit, Folder: "cubits", NameSuffix: "Cubit",
				AllowedTargets: []core.Layer{core.LayerCubitState, core.LayerUseCase}},
			{Layer: core.LayerCubitState, Folder: "states", NameSuffix: "State"},
			{Layer: core.LayerUseCase, Folder: "use_cases", NameSuffix: "UseCase",
				AllowedTargets: []core.Layer{core.LayerRepositoryIntf, core.LayerServiceIntf}},
			{Layer: core.LayerRepositoryIntf, Folder: "repositories", NameSuffix: "Repository", Abstract: true},
			{Layer: core.LayerRepositoryImpl, Folder: "repositories", NameSuffix: "RepositoryImpl",
				AllowedTargets: []core.Layer{core.LayerRepositoryIntf, core.LayerDataSource, core.LayerDTO}},
			{Layer: core.LayerDataSource, Folder: "data_sources", NameSuffix: "DataSource",
				AllowedTargets: []core.Layer{core.LayerDTO}},
			{Layer: core.LayerBusinessObject, Folder: "business_objects"},
		},
	}
}

func edge(fromName, fromFile, fromFeature string, fromLayer core.Layer, toName, toFile, toFeature string, toLayer core.Layer) core.Edge {
	return core.Edge{
		FromID:      fromFile + "#" + fromName,
		ToID:        toFile + "#" + toName,
		FromName:    fromName,
		ToName:      toName,
		FromFile:    fromFile,
		ToFile:      toFile,
		FromFeature: fromFeature,
		ToFeature:   toFeature,
		FromLayer:   fromLayer,
		ToLayer:     toLayer,
		Line:        3,
	}
}

func edgeContext(edges ...core.Edge) *conformance.Context {
	return conformance.NewContext(testPolicy(), nil, nil, nil, edges, nil)
}

func TestDP01_LayerDependency(t *testing.T) {
	tests := []struct {
		name      string
		edge      core.Edge
		wantDiags int
	}{
		{
			name: "screen reaching a repository impl",
			edge: edge("BookingScreen", "booking/screens/booking_screen.dart", "booking", core.LayerUIScreen,
				"BookingRepositoryImpl", "booking/repositories/booking_repository_impl.dart", "booking", core.LayerRepositoryImpl),
			wantDiags: 1,
		},
		{
			name: "use case reaching a data source",
			edge: edge("GetCurrentUserUseCase", "profile/use_cases/get_current_user_use_case.dart", "profile", core.LayerUseCase,
				"SQLiteBookingDataSource", "profile/data_sources/sqlite_booking_data_source.dart", "profile", core.LayerDataSource),
			wantDiags: 1,
		},
		{
			name: "repository impl to data source is allowed",
			edge: edge("BookingRepositoryImpl", "booking/repositories/booking_repository_impl.dart", "booking", core.LayerRepositoryImpl,
				"LocalBookingDataSource", "booking/data_sources/local_booking_data_source.dart", "booking", core.LayerDataSource),
			wantDiags: 0,
		},
		{
			name: "cubit to use case is allowed",
			edge: edge("BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit,
				"CreateBookingUseCase", "booking/use_cases/create_booking_use_case.dart", "booking", core.LayerUseCase),
			wantDiags: 0,
		},
		{
			name: "business object target is always permitted",
			edge: edge("BookingState", "booking/states/booking_state.dart", "booking", core.LayerCubitState,
				"Booking", "common/business_objects/booking.dart", "common", core.LayerBusinessObject),
			wantDiags: 0,
		},
		{
			name: "same layer target is always permitted",
			edge: edge("DatePicker", "booking/components/date_picker.dart", "booking", core.LayerUIComponent,
				"TimeSlotChip", "booking/components/time_slot_chip.dart", "booking", core.LayerUIComponent),
			wantDiags: 0,
		},
		{
			name: "unclassified endpoint is skipped",
			edge: edge("Helper", "booking/misc/helper.dart", "booking", core.LayerUnclassified,
				"BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit),
			wantDiags: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := checkLayerDependency(edgeContext(tt.edge))

			assert.Len(t, diags, tt.wantDiags)
		})
	}
}

func TestDP01_SelfReferenceIsPermitted(t *testing.T) {
	e := edge("BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit,
		"BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit)

	diags := checkLayerDependency(edgeContext(e))

	assert.Empty(t, diags)
}

func TestDP01_ViolationNamesBothUnits(t *testing.T) {
	e := edge("GetCurrentUserUseCase", "profile/use_cases/get_current_user_use_case.dart", "profile", core.LayerUseCase,
		"SQLiteBookingDataSource", "profile/data_sources/sqlite_booking_data_source.dart", "profile", core.LayerDataSource)

	diags := checkLayerDependency(edgeContext(e))

	require.Len(t, diags, 1)
	v := diags[0]
	assert.Equal(t, "DP01", v.RuleID)
	assert.Equal(t, core.KindIllegalDependency, v.Kind)
	assert.Equal(t, core.SeverityError, v.Severity)
	assert.Equal(t, "profile", v.Feature)
	assert.Equal(t, "profile/use_cases/get_current_user_use_case.dart", v.File)
	assert.Equal(t, 3, v.Line)
	assert.Equal(t, "GetCurrentUserUseCase", v.Unit)
	assert.Contains(t, v.Message, "GetCurrentUserUseCase")
	assert.Contains(t, v.Message, "SQLiteBookingDataSource")
	assert.Contains(t, v.Message, "REPOSITORY_INTERFACE, SERVICE_INTERFACE, BUSINESS_OBJECT")
}

func TestDP02_CrossFeature(t *testing.T) {
	tests := []struct {
		name      string
		edge      core.Edge
		wantDiags int
	}{
		{
			name: "feature reaching a sibling feature",
			edge: edge("SettingsCubit", "settings/cubits/settings_cubit.dart", "settings", core.LayerCubit,
				"AuthenticationRepository", "authentication/repositories/authentication_repository.dart", "authentication", core.LayerRepositoryIntf),
			wantDiags: 1,
		},
		{
			name: "feature reaching common is allowed",
			edge: edge("BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit,
				"Booking", "common/business_objects/booking.dart", "common", core.LayerBusinessObject),
			wantDiags: 0,
		},
		{
			name: "same feature is allowed",
			edge: edge("BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit,
				"BookingState", "booking/states/booking_state.dart", "booking", core.LayerCubitState),
			wantDiags: 0,
		},
		{
			name: "common reaching a feature is a violation",
			edge: edge("SessionService", "common/services/session_service.dart", "common", core.LayerServiceIntf,
				"BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit),
			wantDiags: 1,
		},
		{
			name: "edge from a root file carries no feature and is skipped",
			edge: edge("main", "main.dart", "", core.LayerUnclassified,
				"BookingScreen", "booking/screens/booking_screen.dart", "booking", core.LayerUIScreen),
			wantDiags: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := checkCrossFeature(edgeContext(tt.edge))

			assert.Len(t, diags, tt.wantDiags)
		})
	}
}

func TestDP02_MessageExplainsTheBoundary(t *testing.T) {
	crossing := edge("SettingsCubit", "settings/cubits/settings_cubit.dart", "settings", core.LayerCubit,
		"AuthenticationRepository", "authentication/repositories/authentication_repository.dart", "authentication", core.LayerRepositoryIntf)

	diags := checkCrossFeature(edgeContext(crossing))

	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'settings'")
	assert.Contains(t, diags[0].Message, "'authentication'")
	assert.Contains(t, diags[0].Message, "share code through 'common'")

	fromCommon := edge("SessionService", "common/services/session_service.dart", "common", core.LayerServiceIntf,
		"BookingCubit", "booking/cubits/booking_cubit.dart", "booking", core.LayerCubit)

	diags = checkCrossFeature(edgeContext(fromCommon))

	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "'common' must not depend on feature code")
}

func TestDP01_AndDP02_FireIndependentlyOnOneEdge(t *testing.T) {
	e := edge("SettingsScreen", "settings/screens/settings_screen.dart", "settings", core.LayerUIScreen,
		"AuthenticationRepositoryImpl", "authentication/repositories/authentication_repository_impl.dart", "authentication", core.LayerRepositoryImpl)
	ctx := edgeContext(e)

	assert.Len(t, checkLayerDependency(ctx), 1)
	assert.Len(t, checkCrossFeature(ctx), 1)
}
