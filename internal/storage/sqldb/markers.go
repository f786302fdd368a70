package sqldb

func (r *Repo) HasCompletionShown(habitID string) (bool, error) {
	var n int
	if err := r.queryRow(r.db, "SELECT count(*) FROM completion_markers WHERE habit_id = ?", habitID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) MarkCompletionShown(habitID string) error {
	_, err := r.exec(r.db, `
		INSERT INTO completion_markers (habit_id, shown_at) VALUES (?, ?)
		ON CONFLICT (habit_id) DO NOTHING`, habitID, formatTime(r.now()))
	return err
}

func (r *Repo) GetCompletionShown() ([]string, error) {
	rows, err := r.query(r.db, "SELECT habit_id FROM completion_markers ORDER BY habit_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
