package internal

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/rs/zerolog/log"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

func ShowVersion() {
	log.Info().Str("version", versioninfo.Short()).Msg("Version")
}

// RedactedEnviron returns the environment sorted by key with sensitive values
// masked.
func RedactedEnviron(environ []string) []string {
	sorted := make([]string, len(environ))
	copy(sorted, environ)
	sort.Slice(sorted, func(i, j int) bool {
		keyI := strings.SplitN(sorted[i], "=", 2)[0]
		keyJ := strings.SplitN(sorted[j], "=", 2)[0]
		return keyI < keyJ
	})

	for i, entry := range sorted {
		kv := strings.SplitN(entry, "=", 2)
		if sensitiveRegex.MatchString(kv[0]) {
			sorted[i] = kv[0] + "=********"
		}
	}
	return sorted
}

func EnvironmentVars() {
	log.Debug().Msg("Environment variables")
	for _, entry := range RedactedEnviron(os.Environ()) {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) == 2 {
			log.Debug().Msgf("  %s: %s", kv[0], kv[1])
		}
	}
}

func UserInfo() {
	event := log.Info().Int("pid", os.Getpid())
	currentUser, err := user.Current()
	if err != nil {
		log.Warn().Err(err).Msg("Error getting current user")
	} else {
		event = event.Str("user", fmt.Sprintf("uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid))
	}
	groups, err := os.Getgroups()
	if err != nil {
		log.Warn().Err(err).Msg("Error getting groups")
	} else {
		groupNames := make([]string, 0, len(groups))
		for _, gid := range groups {
			group, err := user.LookupGroupId(strconv.Itoa(gid))
			if err != nil {
				groupNames = append(groupNames, strconv.Itoa(gid))
			} else {
				groupNames = append(groupNames, fmt.Sprintf("%s(%s)", group.Name, group.Gid))
			}
		}
		event = event.Strs("groups", groupNames)
	}
	event.Msg("Process")
}
