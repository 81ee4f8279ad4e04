package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"showcase-bot/models"
)

// EnsureGuild creates the guild row if needed and marks it active.
func (s *Store) EnsureGuild(ctx context.Context, guildID, name string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO guilds (id, name, active, created_at) VALUES (?, ?, 1, ?)
        ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = 1`,
		guildID, name, s.timestamp())
	if err != nil {
		return fmt.Errorf("upsert guild %s: %w", guildID, err)
	}
	return nil
}

// SetGuildActive toggles whether the bot moderates the guild.
func (s *Store) SetGuildActive(ctx context.Context, guildID string, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE guilds SET active = ? WHERE id = ?`, active, guildID)
	if err != nil {
		return fmt.Errorf("update guild %s: %w", guildID, err)
	}
	return nil
}

// ActiveGuilds returns every guild currently moderated.
func (s *Store) ActiveGuilds(ctx context.Context) ([]models.Guild, error) {
	var guilds []models.Guild
	if err := s.db.SelectContext(ctx, &guilds, `
        SELECT id, name, active, created_at FROM guilds WHERE active = 1 ORDER BY id`); err != nil {
		return nil, fmt.Errorf("query active guilds: %w", err)
	}
	return guilds, nil
}

// GuildConfig loads a guild together with its settings and role associations.
func (s *Store) GuildConfig(ctx context.Context, guildID string) (models.GuildConfig, error) {
	cfg := models.GuildConfig{
		Settings: make(map[string]string),
		Roles:    make(map[models.RoleType][]string),
	}

	err := s.db.GetContext(ctx, &cfg.Guild, `
        SELECT id, name, active, created_at FROM guilds WHERE id = ?`, guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GuildConfig{}, ErrNotFound
	}
	if err != nil {
		return models.GuildConfig{}, fmt.Errorf("select guild %s: %w", guildID, err)
	}

	var settings []models.GuildSetting
	if err := s.db.SelectContext(ctx, &settings, `
        SELECT guild_id, name, value FROM guild_settings WHERE guild_id = ?`, guildID); err != nil {
		return models.GuildConfig{}, fmt.Errorf("select settings for guild %s: %w", guildID, err)
	}
	for _, setting := range settings {
		cfg.Settings[setting.Name] = setting.Value
	}

	var roles []models.GuildRole
	if err := s.db.SelectContext(ctx, &roles, `
        SELECT guild_id, role_type, role_id FROM guild_roles WHERE guild_id = ?`, guildID); err != nil {
		return models.GuildConfig{}, fmt.Errorf("select roles for guild %s: %w", guildID, err)
	}
	for _, role := range roles {
		cfg.Roles[role.RoleType] = append(cfg.Roles[role.RoleType], role.RoleID)
	}

	return cfg, nil
}

// SetGuildSetting upserts a single setting. An empty value removes it.
func (s *Store) SetGuildSetting(ctx context.Context, guildID, name, value string) error {
	if value == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM guild_settings WHERE guild_id = ? AND name = ?`, guildID, name)
		if err != nil {
			return fmt.Errorf("delete setting %s: %w", name, err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO guild_settings (guild_id, name, value) VALUES (?, ?, ?)
        ON CONFLICT (guild_id, name) DO UPDATE SET value = excluded.value`,
		guildID, name, value)
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", name, err)
	}
	return nil
}

// AddGuildRole associates roleID with a role type.
func (s *Store) AddGuildRole(ctx context.Context, guildID string, roleType models.RoleType, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO guild_roles (guild_id, role_type, role_id) VALUES (?, ?, ?)`,
		guildID, roleType, roleID)
	if err != nil {
		return fmt.Errorf("insert guild role: %w", err)
	}
	return nil
}

// RemoveGuildRole drops a role association.
func (s *Store) RemoveGuildRole(ctx context.Context, guildID string, roleType models.RoleType, roleID string) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM guild_roles WHERE guild_id = ? AND role_type = ? AND role_id = ?`,
		guildID, roleType, roleID)
	if err != nil {
		return fmt.Errorf("delete guild role: %w", err)
	}
	return nil
}
