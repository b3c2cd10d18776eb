package usecases

// HelpText documents the command protocol. The help command prints it and
// never reaches the store.
const HelpText = `
Available Commands:
===================

add-point (lat,lng) [parameters]
  Add a point marker to the map
  Parameters:
    id=<id>           - Unique identifier (auto-generated if not provided)
    tag=<tag>         - Tag for grouping features
    color=<color>     - CSS color (named: red, blue; hex: #FF5733; default: #007cff)
    label=<text>      - Label text (use quotes for spaces: label="My Point")
    opacity=<0.0-1.0> - Transparency (default: 1.0)
    radius=<pixels>   - Circle radius in pixels (default: 4)
    border=<pixels>   - Border width in pixels (default: 2)
  Example: add-point (52.5,13.4) color=red label="Home" radius=6 border=3

add-polyline (lat,lng);(lat,lng);... [parameters]
  Add a line connecting two or more points
  Parameters:
    id=<id>                - Unique identifier
    tag=<tag>              - Tag for grouping
    color=<color>          - Line color (default: #007cff)
    width=<pixels>         - Line width in pixels (default: 2)
    opacity=<0.0-1.0>      - Transparency (default: 1.0)
    markers=<pixels>       - Circle radius at points (0=off, default: 0)
    markerBorder=<pixels>  - Border width of point markers (default: 2)
    label=<text>           - Label text
  Example: add-polyline (52.5,13.4);(52.6,13.5) color=blue width=5

add-polygon (lat,lng);(lat,lng);(lat,lng);... [parameters]
  Add a filled polygon area (three or more points)
  Parameters:
    id=<id>           - Unique identifier
    tag=<tag>         - Tag for grouping
    color=<color>     - Fill and border color (default: #007cff)
    opacity=<0.0-1.0> - Fill transparency (default: 0.3)
    border=<pixels>   - Border width in pixels (default: 2)
    label=<text>      - Label text
  Example: add-polygon (52.1,13.1);(52.2,13.2);(52.15,13.15) color=green opacity=0.5

update-current-position (lat,lng)
  Update the current position marker
  Example: update-current-position (52.5,13.4)

remove id=<id>
  Remove a feature by its ID
  Example: remove id=my-point

remove tag=<tag>
  Remove all features with a specific tag
  Example: remove tag=traffic

clear
  Remove all features from the map

help
  Show this help message

Tips:
-----
- Coordinates: (latitude,longitude), e.g. (52.5,13.4)
- Multiple coordinates: separate with semicolons, e.g. (52.5,13.4);(52.6,13.5)
- String values with spaces: use quotes, e.g. label="My Label"
- Auto-focus and follow position can be toggled in the web UI
`
