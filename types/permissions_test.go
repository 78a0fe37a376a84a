package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthorizedFor(t *testing.T) {
	assert.True(t, ProjectRoleProducer.IsAuthorizedFor(ProjectRoleSupervisor))
	assert.True(t, ProjectRoleSupervisor.IsAuthorizedFor(ProjectRoleSupervisor))
	assert.True(t, ProjectRoleSupervisor.IsAuthorizedFor(ProjectRoleCrew))
	assert.False(t, ProjectRoleCrew.IsAuthorizedFor(ProjectRoleSupervisor))
	assert.False(t, ProjectRoleNone.IsAuthorizedFor(ProjectRoleCrew))
}

func TestCanApprove(t *testing.T) {
	assert.True(t, ProjectRoleProducer.CanApprove())
	assert.True(t, ProjectRoleSupervisor.CanApprove())
	assert.False(t, ProjectRoleCrew.CanApprove())
	assert.False(t, ProjectRoleNone.CanApprove())
}
